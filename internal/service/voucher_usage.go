package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dujiao-next/checkout/internal/models"
	"github.com/dujiao-next/checkout/internal/repository"

	"gorm.io/gorm"
)

type voucherUsageConflictError struct {
	scope     string
	voucherID uint
	cause     string
}

func (e *voucherUsageConflictError) Error() string {
	return fmt.Sprintf("%s: %s voucher %d (%s)", ErrVoucherUsageConflict.Error(), e.scope, e.voucherID, e.cause)
}

func (e *voucherUsageConflictError) Is(target error) bool {
	return target == ErrVoucherUsageConflict
}

// recordVoucherUsage 条件增加使用次数并写入使用记录，必须在事务内调用
func recordVoucherUsage(voucherRepo repository.VoucherRepository, usageRepo repository.VoucherUsageRepository, voucher *models.Voucher, buyerID, orderID uint, discount models.Money, now time.Time) (*models.VoucherUsage, error) {
	if voucher == nil {
		return nil, nil
	}
	conflict := func(cause string) error {
		return &voucherUsageConflictError{scope: voucher.Scope, voucherID: voucher.ID, cause: cause}
	}

	affected, err := voucherRepo.IncrementUsedCount(voucher.ID)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, conflict("usage_limit")
	}
	if voucher.PerUserLimit > 0 {
		count, err := usageRepo.CountByBuyer(voucher.ID, buyerID)
		if err != nil {
			return nil, err
		}
		if int(count) >= voucher.PerUserLimit {
			return nil, conflict("per_user_limit")
		}
	}
	usage := &models.VoucherUsage{
		VoucherID:      voucher.ID,
		BuyerID:        buyerID,
		OrderID:        orderID,
		DiscountAmount: discount,
		UniqueKey:      models.BuildVoucherUsageUniqueKey(voucher, buyerID),
		CreatedAt:      now,
	}
	if err := usageRepo.Create(usage); err != nil {
		if isUniqueViolation(err) {
			return nil, conflict("unique_key")
		}
		return nil, err
	}
	return usage, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
