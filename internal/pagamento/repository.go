package pagamento

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	CriarManual(db *gorm.DB, p *PagamentoManual) error
	BuscarManual(db *gorm.DB, id uint) (*PagamentoManual, error)
	ExcluirManual(db *gorm.DB, id uint) error
	ListarManuais(db *gorm.DB, cobrancaID uint) ([]PagamentoManual, error)

	CriarGateway(db *gorm.DB, p *PagamentoGateway) error
	SalvarGateway(db *gorm.DB, p *PagamentoGateway) error
	BuscarGateway(db *gorm.DB, id uint) (*PagamentoGateway, error)
	BuscarPorExternalID(db *gorm.DB, externalID string) (*PagamentoGateway, error)
	ListarGatewayPorMotorista(db *gorm.DB, motoristaID uint) ([]PagamentoGateway, error)
	PendentesDe(db *gorm.DB, motoristaID uint, tipo Tipo) ([]PagamentoGateway, error)
	ListarVencidas(db *gorm.DB, agora time.Time) ([]PagamentoGateway, error)
	ListarPorStatus(db *gorm.DB, status Status) ([]PagamentoGateway, error)

	TotalPago(db *gorm.DB, cobrancaID uint) (decimal.Decimal, error)
	CaucaoConfirmada(db *gorm.DB, motoristaID uint) (decimal.Decimal, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) CriarManual(db *gorm.DB, p *PagamentoManual) error {
	return db.Create(p).Error
}

func (r *repositoryImpl) BuscarManual(db *gorm.DB, id uint) (*PagamentoManual, error) {
	var p PagamentoManual
	err := db.First(&p, id).Error
	return &p, err
}

func (r *repositoryImpl) ExcluirManual(db *gorm.DB, id uint) error {
	return db.Delete(&PagamentoManual{}, id).Error
}

func (r *repositoryImpl) ListarManuais(db *gorm.DB, cobrancaID uint) ([]PagamentoManual, error) {
	var lista []PagamentoManual
	err := db.Where("cobranca_id = ?", cobrancaID).Order("id").Find(&lista).Error
	return lista, err
}

func (r *repositoryImpl) CriarGateway(db *gorm.DB, p *PagamentoGateway) error {
	return db.Create(p).Error
}

func (r *repositoryImpl) SalvarGateway(db *gorm.DB, p *PagamentoGateway) error {
	return db.Save(p).Error
}

func (r *repositoryImpl) BuscarGateway(db *gorm.DB, id uint) (*PagamentoGateway, error) {
	var p PagamentoGateway
	err := db.First(&p, id).Error
	return &p, err
}

func (r *repositoryImpl) BuscarPorExternalID(db *gorm.DB, externalID string) (*PagamentoGateway, error) {
	var p PagamentoGateway
	err := db.Where("external_id = ?", externalID).First(&p).Error
	return &p, err
}

func (r *repositoryImpl) ListarGatewayPorMotorista(db *gorm.DB, motoristaID uint) ([]PagamentoGateway, error) {
	var lista []PagamentoGateway
	err := db.Where("motorista_id = ?", motoristaID).Order("id DESC").Find(&lista).Error
	return lista, err
}

func (r *repositoryImpl) PendentesDe(db *gorm.DB, motoristaID uint, tipo Tipo) ([]PagamentoGateway, error) {
	var lista []PagamentoGateway
	err := db.Where("motorista_id = ? AND tipo = ? AND status = ?", motoristaID, tipo, StatusPendente).
		Order("id").Find(&lista).Error
	return lista, err
}

// ListarVencidas devolve intenções pendentes com validade já passada.
// O filtro de data é feito aqui para não depender do formato de data do banco.
func (r *repositoryImpl) ListarVencidas(db *gorm.DB, agora time.Time) ([]PagamentoGateway, error) {
	var pendentes []PagamentoGateway
	if err := db.Where("status = ? AND expira_em IS NOT NULL", StatusPendente).Order("id").Find(&pendentes).Error; err != nil {
		return nil, err
	}
	var out []PagamentoGateway
	for _, p := range pendentes {
		if !p.Vivo(agora) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *repositoryImpl) ListarPorStatus(db *gorm.DB, status Status) ([]PagamentoGateway, error) {
	var lista []PagamentoGateway
	err := db.Where("status = ?", status).Order("id").Find(&lista).Error
	return lista, err
}

// TotalPago soma lançamentos manuais e pagamentos semanais confirmados pelo gateway.
// O valor aplicado é o ValorBase; o acréscimo do parcelamento fica com o gateway.
// Pagamento creditado no acerto final (RescisaoID preenchido) não conta para a cobrança.
func (r *repositoryImpl) TotalPago(db *gorm.DB, cobrancaID uint) (decimal.Decimal, error) {
	manuais, err := r.ListarManuais(db, cobrancaID)
	if err != nil {
		return decimal.Zero, err
	}
	var gateway []PagamentoGateway
	err = db.Where("cobranca_id = ? AND tipo = ? AND status = ? AND rescisao_id IS NULL", cobrancaID, TipoSemanal, StatusPago).
		Find(&gateway).Error
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, m := range manuais {
		total = total.Add(m.Valor)
	}
	for _, g := range gateway {
		total = total.Add(g.ValorBase)
	}
	return total, nil
}

func (r *repositoryImpl) CaucaoConfirmada(db *gorm.DB, motoristaID uint) (decimal.Decimal, error) {
	var lista []PagamentoGateway
	err := db.Where("motorista_id = ? AND tipo = ? AND status = ?", motoristaID, TipoCaucao, StatusPago).Find(&lista).Error
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, p := range lista {
		total = total.Add(p.ValorBase)
	}
	return total, nil
}
