package service

import (
	"context"

	"github.com/dujiao-next/checkout/internal/models"
	"github.com/dujiao-next/checkout/internal/repository"
)

// VariantSnapshotService 规格实时快照服务
type VariantSnapshotService struct {
	variantRepo repository.VariantRepository
}

// NewVariantSnapshotService 创建规格快照服务
func NewVariantSnapshotService(variantRepo repository.VariantRepository) *VariantSnapshotService {
	return &VariantSnapshotService{variantRepo: variantRepo}
}

// ListSnapshots 读取规格当前价格、库存与上下架状态
// 结果中缺失的 id 即为不存在（含已删除），每次调用都直接读库。
func (s *VariantSnapshotService) ListSnapshots(ctx context.Context, ids []uint) (map[uint]models.VariantSnapshot, error) {
	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	result := make(map[uint]models.VariantSnapshot, len(unique))
	if len(unique) == 0 {
		return result, nil
	}
	rows, err := s.variantRepo.ListSnapshots(ctx, unique)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.VariantID] = row
	}
	return result, nil
}
