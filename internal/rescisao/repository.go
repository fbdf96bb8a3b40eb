package rescisao

import "gorm.io/gorm"

type Repository interface {
	Criar(db *gorm.DB, r *Rescisao) error
	Salvar(db *gorm.DB, r *Rescisao) error
	BuscarPorID(db *gorm.DB, id uint) (*Rescisao, error)
	BuscarPorMotorista(db *gorm.DB, motoristaID uint) (*Rescisao, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Criar(db *gorm.DB, res *Rescisao) error {
	return db.Create(res).Error
}

func (r *repositoryImpl) Salvar(db *gorm.DB, res *Rescisao) error {
	return db.Save(res).Error
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*Rescisao, error) {
	var res Rescisao
	err := db.First(&res, id).Error
	return &res, err
}

func (r *repositoryImpl) BuscarPorMotorista(db *gorm.DB, motoristaID uint) (*Rescisao, error) {
	var res Rescisao
	err := db.Where("motorista_id = ?", motoristaID).First(&res).Error
	return &res, err
}
