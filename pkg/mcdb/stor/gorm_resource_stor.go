package stor

import (
	"github.com/materials-commons/mcbun/pkg/mcdb/mcmodel"
	"gorm.io/gorm"
)

type GormResourceStor struct {
	db *gorm.DB
}

func NewGormResourceStor(db *gorm.DB) *GormResourceStor {
	return &GormResourceStor{db: db}
}

func (s *GormResourceStor) CreateResource(resc *mcmodel.Resource) (*mcmodel.Resource, error) {
	err := WithTxRetry(s.db, func(tx *gorm.DB) error {
		return tx.Create(resc).Error
	})

	return resc, err
}

func (s *GormResourceStor) GetResourceByName(name string) (*mcmodel.Resource, error) {
	var resc mcmodel.Resource
	if err := s.db.Where("name = ?", name).First(&resc).Error; err != nil {
		return nil, dbErr(err, "resource %s", name)
	}

	return &resc, nil
}

func (s *GormResourceStor) ListGroupMembers(group string) ([]mcmodel.Resource, error) {
	var members []mcmodel.Resource
	err := s.db.Where("group_name = ?", group).Order("name").Find(&members).Error
	return members, dbErr(err, "members of resource group %s", group)
}

// VaultPath returns the vault directory of the named resource.
func (s *GormResourceStor) VaultPath(name string) (string, error) {
	resc, err := s.GetResourceByName(name)
	if err != nil {
		return "", err
	}

	return resc.VaultPath, nil
}
