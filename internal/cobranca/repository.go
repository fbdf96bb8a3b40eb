package cobranca

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Criar(db *gorm.DB, c *CobrancaSemanal) error
	BuscarPorID(db *gorm.DB, id uint) (*CobrancaSemanal, error)
	Salvar(db *gorm.DB, c *CobrancaSemanal) error
	ListarPorMotorista(db *gorm.DB, motoristaID uint) ([]CobrancaSemanal, error)
	ListarEmAberto(db *gorm.DB, motoristaID uint) ([]CobrancaSemanal, error)
	SemanasExistentes(db *gorm.DB, motoristaID uint) (map[string]bool, error)

	CriarDesconto(db *gorm.DB, d *Desconto) error
	BuscarDesconto(db *gorm.DB, id uint) (*Desconto, error)
	SalvarDesconto(db *gorm.DB, d *Desconto) error
	CriarAcrescimo(db *gorm.DB, a *Acrescimo) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Criar(db *gorm.DB, c *CobrancaSemanal) error {
	return db.Omit(clause.Associations).Create(c).Error
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*CobrancaSemanal, error) {
	var c CobrancaSemanal
	err := db.Preload("ItensDesconto").Preload("ItensAcrescimo").First(&c, id).Error
	return &c, err
}

// Salvar grava só a cobrança; descontos e acréscimos têm métodos próprios.
func (r *repositoryImpl) Salvar(db *gorm.DB, c *CobrancaSemanal) error {
	return db.Omit(clause.Associations).Save(c).Error
}

func (r *repositoryImpl) ListarPorMotorista(db *gorm.DB, motoristaID uint) ([]CobrancaSemanal, error) {
	var lista []CobrancaSemanal
	err := db.Preload("ItensDesconto").Preload("ItensAcrescimo").
		Where("motorista_id = ?", motoristaID).
		Order("semana_referencia").
		Find(&lista).Error
	return lista, err
}

func (r *repositoryImpl) ListarEmAberto(db *gorm.DB, motoristaID uint) ([]CobrancaSemanal, error) {
	var lista []CobrancaSemanal
	err := db.Where("motorista_id = ? AND paga = ?", motoristaID, false).
		Order("semana_referencia").
		Find(&lista).Error
	return lista, err
}

func (r *repositoryImpl) SemanasExistentes(db *gorm.DB, motoristaID uint) (map[string]bool, error) {
	var lista []CobrancaSemanal
	if err := db.Select("id", "semana_referencia").Where("motorista_id = ?", motoristaID).Find(&lista).Error; err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(lista))
	for _, c := range lista {
		out[chaveSemana(c.SemanaReferencia)] = true
	}
	return out, nil
}

func (r *repositoryImpl) CriarDesconto(db *gorm.DB, d *Desconto) error {
	return db.Create(d).Error
}

func (r *repositoryImpl) BuscarDesconto(db *gorm.DB, id uint) (*Desconto, error) {
	var d Desconto
	err := db.First(&d, id).Error
	return &d, err
}

func (r *repositoryImpl) SalvarDesconto(db *gorm.DB, d *Desconto) error {
	return db.Save(d).Error
}

func (r *repositoryImpl) CriarAcrescimo(db *gorm.DB, a *Acrescimo) error {
	return db.Create(a).Error
}
