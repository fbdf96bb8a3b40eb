package motorista

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Criar(db *gorm.DB, m *Motorista) error
	BuscarPorID(db *gorm.DB, id uint) (*Motorista, error)
	BuscarParaAtualizar(db *gorm.DB, id uint) (*Motorista, error)
	Salvar(db *gorm.DB, m *Motorista) error
	ListarPorStatus(db *gorm.DB, status ...Status) ([]Motorista, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Criar(db *gorm.DB, m *Motorista) error {
	return db.Create(m).Error
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*Motorista, error) {
	var m Motorista
	err := db.First(&m, id).Error
	return &m, err
}

// BuscarParaAtualizar carrega a linha com SELECT ... FOR UPDATE no Postgres.
// O SQLite dos testes não tem lock de linha; lá a serialização vem do lock por motorista.
func (r *repositoryImpl) BuscarParaAtualizar(db *gorm.DB, id uint) (*Motorista, error) {
	q := db
	if db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var m Motorista
	err := q.First(&m, id).Error
	return &m, err
}

func (r *repositoryImpl) Salvar(db *gorm.DB, m *Motorista) error {
	return db.Save(m).Error
}

func (r *repositoryImpl) ListarPorStatus(db *gorm.DB, status ...Status) ([]Motorista, error) {
	var lista []Motorista
	q := db.Order("id")
	if len(status) > 0 {
		q = q.Where("status IN ?", status)
	}
	err := q.Find(&lista).Error
	return lista, err
}
