package motorista

import (
	"context"
	"time"

	"github.com/kennrick69/locacar/internal/erros"
	"github.com/kennrick69/locacar/internal/lock"
	"github.com/kennrick69/locacar/internal/logger"
	"github.com/kennrick69/locacar/internal/politica"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const componente = "motorista"

// Service concentra o ciclo de vida e os primitivos de serialização por
// motorista usados pelos demais pacotes (cobrança, pagamento, webhook, rescisão).
type Service struct {
	DB         *gorm.DB
	Repository Repository
	Politica   politica.Politica
	Locks      *lock.Keyed
	Log        *logger.Logger
	Agora      func() time.Time
}

func NewService(db *gorm.DB, pol politica.Politica, log *logger.Logger) *Service {
	return &Service{
		DB:         db,
		Repository: NewRepository(),
		Politica:   pol,
		Locks:      lock.NewKeyed(),
		Log:        log,
		Agora:      time.Now,
	}
}

// Travar serializa as operações de um motorista dentro do processo.
func (s *Service) Travar(id uint) func() {
	return s.Locks.Lock(id)
}

// NaTransacao abre uma transação, recarrega o motorista (com lock de linha
// onde houver) e chama fn. Não adquire o lock do processo.
func (s *Service) NaTransacao(ctx context.Context, id uint, fn func(tx *gorm.DB, m *Motorista) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.Repository.BuscarParaAtualizar(tx, id)
		if err != nil {
			return err
		}
		return fn(tx, m)
	})
}

// Executar é Travar + NaTransacao. Não deve ser aninhado para o mesmo motorista.
func (s *Service) Executar(ctx context.Context, id uint, fn func(tx *gorm.DB, m *Motorista) error) error {
	unlock := s.Travar(id)
	defer unlock()
	return s.NaTransacao(ctx, id, fn)
}

// Registrar cria o cadastro em status pendente.
func (s *Service) Registrar(ctx context.Context, in NovoMotorista) (*Motorista, error) {
	if err := validate.Struct(in); err != nil {
		return nil, erros.Validacao("motorista", "%v", err)
	}
	dia := s.Politica.DiaCobranca()
	if in.DiaCobranca != nil {
		dia = *in.DiaCobranca
	}
	m := &Motorista{
		UserID:      in.UserID,
		Nome:        in.Nome,
		CPF:         in.CPF,
		Email:       in.Email,
		Status:      StatusPendente,
		DiaCobranca: dia,
	}
	if err := s.Repository.Criar(s.DB.WithContext(ctx), m); err != nil {
		return nil, err
	}
	s.Log.Info(componente, "motorista %d registrado", m.ID)
	return m, nil
}

func (s *Service) Buscar(ctx context.Context, id uint) (*Motorista, error) {
	return s.Repository.BuscarPorID(s.DB.WithContext(ctx), id)
}

func (s *Service) Listar(ctx context.Context, status ...Status) ([]Motorista, error) {
	return s.Repository.ListarPorStatus(s.DB.WithContext(ctx), status...)
}

// Aplicar dispara um evento manual (operador). Inadimplência e rescisão
// são conduzidas pelo próprio sistema e não passam por aqui.
func (s *Service) Aplicar(ctx context.Context, id uint, ev Evento, motivo string) (*Motorista, error) {
	if !ev.Manual() {
		return nil, erros.Validacao("evento", "evento %q não pode ser disparado manualmente", ev)
	}
	var out *Motorista
	err := s.Executar(ctx, id, func(tx *gorm.DB, m *Motorista) error {
		if err := s.AplicarEvento(tx, m, ev, motivo); err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}

// AplicarEvento transiciona e persiste dentro de uma transação já aberta.
// Em erro, m fica como estava.
func (s *Service) AplicarEvento(tx *gorm.DB, m *Motorista, ev Evento, motivo string) error {
	de := m.Status
	novo, err := Transicionar(*m, ev, motivo, s.Agora())
	if err != nil {
		return err
	}
	if err := s.Repository.Salvar(tx, &novo); err != nil {
		return err
	}
	*m = novo
	s.Log.Info(componente, "motorista %d: %s -> %s (%s)", m.ID, de, m.Status, ev)
	return nil
}

// RegistrarCaucao liga a flag de caução na transação corrente.
func (s *Service) RegistrarCaucao(tx *gorm.DB, m *Motorista) (bool, error) {
	mudou, err := MarcarCaucaoPaga(m)
	if err != nil || !mudou {
		return mudou, err
	}
	return true, s.Repository.Salvar(tx, m)
}

// AtribuirVeiculo vincula o veículo e o valor semanal do aluguel.
func (s *Service) AtribuirVeiculo(ctx context.Context, id, veiculoID uint, valorSemanal decimal.Decimal) (*Motorista, error) {
	if veiculoID == 0 {
		return nil, erros.Validacao("veiculoId", "veículo obrigatório")
	}
	if !valorSemanal.IsPositive() {
		return nil, erros.Validacao("valorSemanal", "deve ser positivo")
	}
	var out *Motorista
	err := s.Executar(ctx, id, func(tx *gorm.DB, m *Motorista) error {
		if m.Status != StatusAprovado && !m.EmOperacao() {
			return erros.Transicao(string(m.Status), "atribuir_veiculo", "motorista precisa estar aprovado")
		}
		v := veiculoID
		m.VeiculoID = &v
		m.ValorSemanal = valorSemanal
		out = m
		return s.Repository.Salvar(tx, m)
	})
	return out, err
}

// ConfirmarContrato registra (ou desfaz) a confirmação do contrato assinado.
// Motorista em operação não pode ter o contrato desconfirmado.
func (s *Service) ConfirmarContrato(ctx context.Context, id uint, confirmado bool) (*Motorista, error) {
	var out *Motorista
	err := s.Executar(ctx, id, func(tx *gorm.DB, m *Motorista) error {
		switch {
		case m.Encerrado() || m.Status == StatusReprovado:
			return erros.Transicao(string(m.Status), "confirmar_contrato", "cadastro encerrado")
		case !confirmado && m.EmOperacao():
			return erros.Transicao(string(m.Status), "confirmar_contrato", "motorista em operação não pode desconfirmar o contrato")
		}
		m.ContratoConfirmado = confirmado
		out = m
		return s.Repository.Salvar(tx, m)
	})
	return out, err
}

// MarcarCadastroExterno grava que o registro externo foi feito.
func (s *Service) MarcarCadastroExterno(ctx context.Context, id uint) error {
	return s.Executar(ctx, id, s.MarcarCadastroExternoTx)
}

// MarcarCadastroExternoTx é MarcarCadastroExterno dentro de uma transação aberta.
func (s *Service) MarcarCadastroExternoTx(tx *gorm.DB, m *Motorista) error {
	if m.CadastroExterno {
		return nil
	}
	agora := s.Agora()
	m.CadastroExterno = true
	m.CadastroExternoEm = &agora
	return s.Repository.Salvar(tx, m)
}

// PendentesCadastroExterno lista motoristas com caução paga e ainda sem registro externo.
func (s *Service) PendentesCadastroExterno(ctx context.Context) ([]Motorista, error) {
	var lista []Motorista
	err := s.DB.WithContext(ctx).
		Where("caucao_paga = ? AND cadastro_externo = ?", true, false).
		Order("id").Find(&lista).Error
	return lista, err
}
