package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/membership_backend/config"
	"gorm.io/gorm"
)

type Member struct {
	ID                  int          `gorm:"primary_key" json:"id"`
	GlobalId            string       `gorm:"uniqueIndex;size:100;not null" json:"global_id"`
	Name                string       `gorm:"size:191" json:"name"`
	Email               *string      `gorm:"size:191" json:"email"`
	PinCode             *string      `gorm:"size:20" json:"pin_code"`
	State               *string      `gorm:"size:100" json:"state"`
	Location            *string      `gorm:"size:100" json:"location"`
	Registration        *string      `gorm:"size:100" json:"registration"`
	Product             *string      `gorm:"size:191" json:"product"`
	MembershipType      *string      `gorm:"size:50" json:"membership_type"`
	MembershipStartDate *time.Time   `json:"membership_start_date"`
	MembershipEndDate   *time.Time   `json:"membership_end_date"`
	PaymentStartDate    *time.Time   `json:"payment_start_date"`
	PaymentEndDate      *time.Time   `json:"payment_end_date"`
	Status              MemberStatus `gorm:"size:20;not null;default:ACTIVE" json:"status"`
	Invoices            []Invoice    `gorm:"foreignKey:MemberId" json:"-"`
	CreatedAt           time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type MemberWithCount struct {
	Member
	InvoiceCount int `json:"invoice_count"`
}

func GetMemberByGlobalId(ctx context.Context, tx *gorm.DB, globalId string) (*Member, error) {
	var member Member
	err := tx.WithContext(ctx).Where("global_id = ?", globalId).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func GetMembers(ctx context.Context, page int, limit int, search string, status string, product string) ([]*MemberWithCount, int64, error) {
	db := config.GetDB()

	query := db.WithContext(ctx).Model(&Member{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("global_id LIKE ? OR name LIKE ? OR email LIKE ?", like, like, like)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if product != "" {
		query = query.Where("product = ?", product)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var members []*MemberWithCount
	err := query.
		Select("members.*, (SELECT COUNT(*) FROM invoices WHERE invoices.member_id = members.id) AS invoice_count").
		Order("updated_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(&members).Error
	if err != nil {
		return nil, 0, err
	}

	return members, total, nil
}

func UpdateMember(ctx context.Context, id int, updates map[string]interface{}) (*Member, error) {
	db := config.GetDB()

	var member Member
	if err := db.WithContext(ctx).First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("member not found")
		}
		return nil, err
	}

	if err := db.WithContext(ctx).Model(&member).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &member, nil
}
