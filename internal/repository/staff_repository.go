package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"admissions-advisor/internal/model"
)

type StaffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

func (r *StaffRepository) Create(staff *model.Staff) error {
	if err := r.db.Create(staff).Error; err != nil {
		return fmt.Errorf("create staff account failed: %w", err)
	}
	return nil
}

// Count returns the total number of staff accounts, active or not. Zero means
// the office has not been bootstrapped yet.
func (r *StaffRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&model.Staff{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count staff accounts failed: %w", err)
	}
	return count, nil
}

func (r *StaffRepository) GetByUsername(username string) (*model.Staff, error) {
	return r.getBy("username = ?", username)
}

func (r *StaffRepository) GetByEmail(email string) (*model.Staff, error) {
	return r.getBy("email = ?", email)
}

func (r *StaffRepository) GetByID(id uint) (*model.Staff, error) {
	return r.getBy("id = ?", id)
}

func (r *StaffRepository) List() ([]model.Staff, error) {
	var accounts []model.Staff
	if err := r.db.Order("created_at ASC").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list staff accounts failed: %w", err)
	}
	return accounts, nil
}

// SetActive flips the account's active flag; the row is kept either way so
// the audit trail of who uploaded which document survives deactivation.
func (r *StaffRepository) SetActive(id uint, active bool) error {
	if err := r.db.Model(&model.Staff{}).Where("id = ?", id).Update("active", active).Error; err != nil {
		return fmt.Errorf("set staff active failed: %w", err)
	}
	return nil
}

func (r *StaffRepository) getBy(query string, arg any) (*model.Staff, error) {
	var staff model.Staff
	if err := r.db.Where(query, arg).First(&staff).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query staff account failed: %w", err)
	}
	return &staff, nil
}
