package cobranca

import (
	"context"
	"time"

	"github.com/kennrick69/locacar/internal/dinheiro"
	"github.com/kennrick69/locacar/internal/erros"
	"github.com/kennrick69/locacar/internal/logger"
	"github.com/kennrick69/locacar/internal/motorista"
	"github.com/kennrick69/locacar/internal/politica"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const componente = "cobranca"

// Liquidacao é a visão do livro de pagamentos de que a cobrança precisa.
// Implementada por pagamento.Ledger.
type Liquidacao interface {
	TotalPago(tx *gorm.DB, cobrancaID uint) (decimal.Decimal, error)
	MarcarSeQuitada(tx *gorm.DB, c *CobrancaSemanal, agora time.Time) error
}

type Service struct {
	DB         *gorm.DB
	Repository Repository
	Motoristas *motorista.Service
	Politica   politica.Politica
	Liquidacao Liquidacao
	Local      *time.Location
	Log        *logger.Logger
	Agora      func() time.Time
}

func NewService(db *gorm.DB, motoristas *motorista.Service, pol politica.Politica, log *logger.Logger) *Service {
	return &Service{
		DB:         db,
		Repository: NewRepository(),
		Motoristas: motoristas,
		Politica:   pol,
		Local:      time.UTC,
		Log:        log,
		Agora:      time.Now,
	}
}

func (s *Service) hoje() time.Time {
	return Dia(s.Agora(), s.Local)
}

type GerarInput struct {
	MotoristaID uint
	DataInicio  time.Time
	DiaCobranca *time.Weekday
	ValorBase   decimal.Decimal
	// Ate é inclusive; zero significa hoje.
	Ate time.Time
}

func (in GerarInput) validar() error {
	if in.MotoristaID == 0 {
		return erros.Validacao("motoristaId", "obrigatório")
	}
	if !in.ValorBase.IsPositive() {
		return erros.Validacao("valorBase", "deve ser positivo")
	}
	if in.DataInicio.IsZero() {
		return erros.Validacao("dataInicio", "data de início ausente")
	}
	if in.DiaCobranca == nil {
		return erros.Validacao("diaCobranca", "dia de cobrança ausente")
	}
	if *in.DiaCobranca < time.Sunday || *in.DiaCobranca > time.Saturday {
		return erros.Validacao("diaCobranca", "dia inválido: %d", *in.DiaCobranca)
	}
	return nil
}

// Gerar cria as cobranças semanais que faltam até in.Ate. Semanas já
// existentes são puladas, então chamar de novo é seguro.
func (s *Service) Gerar(ctx context.Context, in GerarInput) ([]CobrancaSemanal, error) {
	if err := in.validar(); err != nil {
		return nil, err
	}
	var criadas []CobrancaSemanal
	err := s.Motoristas.Executar(ctx, in.MotoristaID, func(tx *gorm.DB, m *motorista.Motorista) error {
		var err error
		criadas, err = s.gerarTx(tx, m, in)
		return err
	})
	return criadas, err
}

// GerarPendentes gera até ate usando os dados do próprio cadastro.
func (s *Service) GerarPendentes(ctx context.Context, motoristaID uint, ate time.Time) ([]CobrancaSemanal, error) {
	var criadas []CobrancaSemanal
	err := s.Motoristas.Executar(ctx, motoristaID, func(tx *gorm.DB, m *motorista.Motorista) error {
		in, err := s.entradaDoCadastro(m, ate)
		if err != nil {
			return err
		}
		criadas, err = s.gerarTx(tx, m, in)
		return err
	})
	return criadas, err
}

func (s *Service) entradaDoCadastro(m *motorista.Motorista, ate time.Time) (GerarInput, error) {
	in := GerarInput{MotoristaID: m.ID, ValorBase: m.ValorSemanal, Ate: ate}
	dia := m.DiaCobranca
	in.DiaCobranca = &dia
	if m.DataInicio != nil {
		in.DataInicio = *m.DataInicio
	}
	return in, in.validar()
}

func (s *Service) gerarTx(tx *gorm.DB, m *motorista.Motorista, in GerarInput) ([]CobrancaSemanal, error) {
	if m.VeiculoID == nil {
		return nil, erros.Validacao("veiculoId", "motorista sem veículo atribuído")
	}
	if !m.EmOperacao() {
		return nil, erros.Transicao(string(m.Status), "gerar_cobranca", "motorista não está em operação")
	}
	ate := s.hoje()
	if !in.Ate.IsZero() {
		ate = Dia(in.Ate, s.Local)
	}
	existentes, err := s.Repository.SemanasExistentes(tx, m.ID)
	if err != nil {
		return nil, err
	}

	var criadas []CobrancaSemanal
	for _, p := range PlanejarSemanas(Dia(in.DataInicio, s.Local), *in.DiaCobranca, in.ValorBase, ate) {
		if existentes[chaveSemana(p.Referencia)] {
			continue
		}
		c := CobrancaSemanal{
			MotoristaID:      m.ID,
			SemanaReferencia: p.Referencia,
			ValorBase:        p.Valor,
			Proporcional:     p.Proporcional,
			DiasCobrados:     p.Dias,
		}
		Recalcular(&c)
		if err := s.Repository.Criar(tx, &c); err != nil {
			return nil, err
		}
		existentes[chaveSemana(p.Referencia)] = true
		criadas = append(criadas, c)
	}
	if len(criadas) > 0 {
		s.Log.Info(componente, "motorista %d: %d cobrança(s) gerada(s) até %s", m.ID, len(criadas), chaveSemana(ate))
	}
	return criadas, nil
}

type AvulsaInput struct {
	MotoristaID      uint            `json:"motoristaId" validate:"required"`
	SemanaReferencia time.Time       `json:"semanaReferencia" validate:"required"`
	ValorBase        decimal.Decimal `json:"valorBase"`
	Observacao       string          `json:"observacao" validate:"max=500"`
}

// CriarAvulsa lança uma cobrança manual para uma semana específica.
func (s *Service) CriarAvulsa(ctx context.Context, in AvulsaInput) (*CobrancaSemanal, error) {
	if err := validate.Struct(in); err != nil {
		return nil, erros.Validacao("cobranca", "%v", err)
	}
	if !in.ValorBase.IsPositive() {
		return nil, erros.Validacao("valorBase", "deve ser positivo")
	}
	var out *CobrancaSemanal
	err := s.Motoristas.Executar(ctx, in.MotoristaID, func(tx *gorm.DB, m *motorista.Motorista) error {
		if !m.EmOperacao() {
			return erros.Transicao(string(m.Status), "gerar_cobranca", "motorista não está em operação")
		}
		ref := Dia(in.SemanaReferencia, s.Local)
		existentes, err := s.Repository.SemanasExistentes(tx, m.ID)
		if err != nil {
			return err
		}
		if existentes[chaveSemana(ref)] {
			return erros.Conflito("já existe cobrança para a semana %s", chaveSemana(ref))
		}
		c := &CobrancaSemanal{
			MotoristaID:      m.ID,
			SemanaReferencia: ref,
			ValorBase:        dinheiro.Arredondar(in.ValorBase),
			DiasCobrados:     diasSemana,
			Observacao:       in.Observacao,
		}
		Recalcular(c)
		if err := s.Repository.Criar(tx, c); err != nil {
			return err
		}
		out = c
		return s.SincronizarInadimplencia(tx, m, s.hoje())
	})
	return out, err
}

func (s *Service) Buscar(ctx context.Context, id uint) (*CobrancaSemanal, error) {
	return s.Repository.BuscarPorID(s.DB.WithContext(ctx), id)
}

func (s *Service) Listar(ctx context.Context, motoristaID uint) ([]CobrancaSemanal, error) {
	return s.Repository.ListarPorMotorista(s.DB.WithContext(ctx), motoristaID)
}

// SolicitarDesconto registra um pedido de desconto, ainda sem efeito no valor.
func (s *Service) SolicitarDesconto(ctx context.Context, cobrancaID uint, descricao string, valor decimal.Decimal, comprovante string) (*Desconto, error) {
	if !valor.IsPositive() {
		return nil, erros.Validacao("valor", "deve ser positivo")
	}
	if descricao == "" {
		return nil, erros.Validacao("descricao", "obrigatória")
	}
	c, err := s.Buscar(ctx, cobrancaID)
	if err != nil {
		return nil, err
	}
	var out *Desconto
	err = s.Motoristas.Executar(ctx, c.MotoristaID, func(tx *gorm.DB, m *motorista.Motorista) error {
		c, err := s.Repository.BuscarPorID(tx, cobrancaID)
		if err != nil {
			return err
		}
		if c.Paga {
			return erros.Conflito("cobrança %d já está paga", c.ID)
		}
		d := &Desconto{
			CobrancaID:  c.ID,
			MotoristaID: c.MotoristaID,
			Descricao:   descricao,
			Valor:       dinheiro.Arredondar(valor),
			Comprovante: comprovante,
		}
		out = d
		return s.Repository.CriarDesconto(tx, d)
	})
	return out, err
}

// AprovarDesconto aplica o desconto ao ValorFinal na mesma transação.
func (s *Service) AprovarDesconto(ctx context.Context, descontoID uint) (*CobrancaSemanal, error) {
	d, err := s.Repository.BuscarDesconto(s.DB.WithContext(ctx), descontoID)
	if err != nil {
		return nil, err
	}
	var out *CobrancaSemanal
	err = s.Motoristas.Executar(ctx, d.MotoristaID, func(tx *gorm.DB, m *motorista.Motorista) error {
		d, err := s.Repository.BuscarDesconto(tx, descontoID)
		if err != nil {
			return err
		}
		if d.Aprovado {
			return erros.Conflito("desconto %d já aprovado", d.ID)
		}
		c, err := s.Repository.BuscarPorID(tx, d.CobrancaID)
		if err != nil {
			return err
		}
		if c.Paga {
			return erros.Conflito("cobrança %d já está paga", c.ID)
		}
		c.DescontosAprovados = c.DescontosAprovados.Add(d.Valor)
		Recalcular(c)

		pago, err := s.Liquidacao.TotalPago(tx, c.ID)
		if err != nil {
			return err
		}
		if c.ValorFinal.Add(dinheiro.Tolerancia).LessThan(pago) {
			return erros.Conflito("desconto deixaria a cobrança %d abaixo do já pago (%s)", c.ID, pago.StringFixed(2))
		}

		agora := s.Agora()
		d.Aprovado = true
		d.AprovadoEm = &agora
		if err := s.Repository.SalvarDesconto(tx, d); err != nil {
			return err
		}
		if err := s.Repository.Salvar(tx, c); err != nil {
			return err
		}
		if err := s.Liquidacao.MarcarSeQuitada(tx, c, agora); err != nil {
			return err
		}
		out = c
		return s.SincronizarInadimplencia(tx, m, s.hoje())
	})
	return out, err
}

// AdicionarAcrescimo soma um acréscimo à cobrança, paga ou não.
func (s *Service) AdicionarAcrescimo(ctx context.Context, cobrancaID uint, descricao string, valor decimal.Decimal) (*CobrancaSemanal, error) {
	if !valor.IsPositive() {
		return nil, erros.Validacao("valor", "deve ser positivo")
	}
	if descricao == "" {
		return nil, erros.Validacao("descricao", "obrigatória")
	}
	c, err := s.Buscar(ctx, cobrancaID)
	if err != nil {
		return nil, err
	}
	var out *CobrancaSemanal
	err = s.Motoristas.Executar(ctx, c.MotoristaID, func(tx *gorm.DB, m *motorista.Motorista) error {
		c, err := s.Repository.BuscarPorID(tx, cobrancaID)
		if err != nil {
			return err
		}
		a := &Acrescimo{CobrancaID: c.ID, Descricao: descricao, Valor: dinheiro.Arredondar(valor)}
		if err := s.Repository.CriarAcrescimo(tx, a); err != nil {
			return err
		}
		c.ItensAcrescimo = append(c.ItensAcrescimo, *a)
		c.Acrescimos = c.Acrescimos.Add(a.Valor)
		Recalcular(c)
		if err := s.Repository.Salvar(tx, c); err != nil {
			return err
		}
		if err := s.Liquidacao.MarcarSeQuitada(tx, c, s.Agora()); err != nil {
			return err
		}
		out = c
		return s.SincronizarInadimplencia(tx, m, s.hoje())
	})
	return out, err
}

// AvaliarMotorista recalcula multas das cobranças em aberto e sincroniza a inadimplência.
func (s *Service) AvaliarMotorista(ctx context.Context, motoristaID uint, asOf time.Time) (int, error) {
	var alteradas int
	err := s.Motoristas.Executar(ctx, motoristaID, func(tx *gorm.DB, m *motorista.Motorista) error {
		var err error
		alteradas, err = s.AvaliarTx(tx, m.ID, asOf)
		if err != nil {
			return err
		}
		return s.SincronizarInadimplencia(tx, m, asOf)
	})
	return alteradas, err
}

// AvaliarTx aplica a multa a cada cobrança em aberto dentro da transação corrente.
func (s *Service) AvaliarTx(tx *gorm.DB, motoristaID uint, asOf time.Time) (int, error) {
	abertas, err := s.Repository.ListarEmAberto(tx, motoristaID)
	if err != nil {
		return 0, err
	}
	asOf = Dia(asOf, s.Local)
	alteradas := 0
	for i := range abertas {
		c := &abertas[i]
		if !Avaliar(c, s.Politica, asOf) {
			continue
		}
		if err := s.Repository.Salvar(tx, c); err != nil {
			return alteradas, err
		}
		alteradas++
	}
	return alteradas, nil
}

// SincronizarInadimplencia leva ativo⇄inadimplente conforme haja cobrança em
// aberto vencida além da carência em asOf.
func (s *Service) SincronizarInadimplencia(tx *gorm.DB, m *motorista.Motorista, asOf time.Time) error {
	if !m.EmOperacao() {
		return nil
	}
	abertas, err := s.Repository.ListarEmAberto(tx, m.ID)
	if err != nil {
		return err
	}
	asOf = Dia(asOf, s.Local)
	vencida := false
	for _, c := range abertas {
		if DiasEntre(c.SemanaReferencia, asOf) > s.Politica.DiasCarencia() {
			vencida = true
			break
		}
	}
	switch {
	case vencida && m.Status == motorista.StatusAtivo:
		return s.Motoristas.AplicarEvento(tx, m, motorista.EventoInadimplir, "")
	case !vencida && m.Status == motorista.StatusInadimplente:
		return s.Motoristas.AplicarEvento(tx, m, motorista.EventoRegularizar, "")
	}
	return nil
}

// Processar é a rotina diária de um motorista: gera as semanas que faltam,
// avalia multas e sincroniza a inadimplência, tudo numa transação.
func (s *Service) Processar(ctx context.Context, motoristaID uint, agora time.Time) error {
	return s.Motoristas.Executar(ctx, motoristaID, func(tx *gorm.DB, m *motorista.Motorista) error {
		if !m.EmOperacao() {
			return nil
		}
		in, err := s.entradaDoCadastro(m, agora)
		if err != nil {
			return err
		}
		if _, err := s.gerarTx(tx, m, in); err != nil {
			return err
		}
		if _, err := s.AvaliarTx(tx, m.ID, agora); err != nil {
			return err
		}
		return s.SincronizarInadimplencia(tx, m, agora)
	})
}
