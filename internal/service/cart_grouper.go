package service

import (
	"context"

	"github.com/dujiao-next/checkout/internal/constants"
	"github.com/dujiao-next/checkout/internal/models"

	"github.com/shopspring/decimal"
)

// CartLine 购物行输入
type CartLine struct {
	VariantID         uint          `json:"variant_id"`
	Quantity          int           `json:"quantity"`
	ExpectedUnitPrice *models.Money `json:"expected_unit_price,omitempty"` // 上次草稿中的单价，仅用于检测变价
}

// PricedLine 校验通过的购物行（附带实时快照）
type PricedLine struct {
	VariantID   uint         `json:"variant_id"`
	ProductID   uint         `json:"product_id"`
	SKUCode     string       `json:"sku_code"`
	ProductName string       `json:"product_name"`
	VariantName string       `json:"variant_name"`
	Quantity    int          `json:"quantity"`
	Stock       int          `json:"stock"`
	UnitPrice   models.Money `json:"unit_price"`
	LineTotal   models.Money `json:"line_total"`
}

// ShopGroup 单个店铺的购物分组
type ShopGroup struct {
	ShopID             uint                `json:"shop_id"`
	ShopName           string              `json:"shop_name"`
	ShopSlug           string              `json:"shop_slug"`
	Lines              []PricedLine        `json:"lines"`
	InvalidItems       []InvalidItem       `json:"invalid_items"`
	RawSubtotal        models.Money        `json:"raw_subtotal"`
	ShopVoucher        *VoucherApplication `json:"shop_voucher,omitempty"`
	ShopDiscount       models.Money        `json:"shop_discount"`
	DiscountedSubtotal models.Money        `json:"discounted_subtotal"`
	ShippingFee        models.Money        `json:"shipping_fee"`

	baseShippingFee models.Money
}

// HasValidLines 是否存在可结算的商品
func (g *ShopGroup) HasValidLines() bool {
	return g != nil && len(g.Lines) > 0
}

// GroupResult 分组结果
type GroupResult struct {
	Groups       []*ShopGroup
	InvalidItems []InvalidItem
}

// Group 返回指定店铺的分组
func (r *GroupResult) Group(shopID uint) *ShopGroup {
	if r == nil {
		return nil
	}
	for _, group := range r.Groups {
		if group.ShopID == shopID {
			return group
		}
	}
	return nil
}

// CartGrouper 购物行分组器
type CartGrouper struct {
	snapshots *VariantSnapshotService
}

// NewCartGrouper 创建分组器
func NewCartGrouper(snapshots *VariantSnapshotService) *CartGrouper {
	return &CartGrouper{snapshots: snapshots}
}

// Group 按店铺分组并标记失效行
// 相同规格的多行先合并数量；店铺顺序为首次出现顺序。
func (g *CartGrouper) Group(ctx context.Context, lines []CartLine) (*GroupResult, error) {
	merged, err := mergeCartLines(lines)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(merged))
	for _, line := range merged {
		ids = append(ids, line.VariantID)
	}
	snapshots, err := g.snapshots.ListSnapshots(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := &GroupResult{
		Groups:       make([]*ShopGroup, 0),
		InvalidItems: make([]InvalidItem, 0),
	}
	subtotals := make(map[uint]decimal.Decimal)
	for _, line := range merged {
		snapshot, ok := snapshots[line.VariantID]
		if !ok {
			result.InvalidItems = append(result.InvalidItems, InvalidItem{
				VariantID:         line.VariantID,
				Reason:            constants.InvalidReasonVariantNotFound,
				RequestedQty:      line.Quantity,
				ExpectedUnitPrice: line.ExpectedUnitPrice,
			})
			continue
		}

		group := result.Group(snapshot.ShopID)
		if group == nil {
			group = &ShopGroup{
				ShopID:          snapshot.ShopID,
				ShopName:        snapshot.ShopName,
				ShopSlug:        snapshot.ShopSlug,
				Lines:           make([]PricedLine, 0),
				InvalidItems:    make([]InvalidItem, 0),
				baseShippingFee: snapshot.ShippingFee,
			}
			result.Groups = append(result.Groups, group)
		}

		if reason := classifyCartLine(line, snapshot); reason != "" {
			unitPrice := snapshot.UnitPrice
			item := InvalidItem{
				VariantID:         line.VariantID,
				ShopID:            snapshot.ShopID,
				Reason:            reason,
				Stock:             snapshot.Stock,
				RequestedQty:      line.Quantity,
				UnitPrice:         &unitPrice,
				ExpectedUnitPrice: line.ExpectedUnitPrice,
			}
			group.InvalidItems = append(group.InvalidItems, item)
			result.InvalidItems = append(result.InvalidItems, item)
			continue
		}

		lineTotal := snapshot.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		group.Lines = append(group.Lines, PricedLine{
			VariantID:   snapshot.VariantID,
			ProductID:   snapshot.ProductID,
			SKUCode:     snapshot.SKUCode,
			ProductName: snapshot.ProductName,
			VariantName: snapshot.VariantName,
			Quantity:    line.Quantity,
			Stock:       snapshot.Stock,
			UnitPrice:   snapshot.UnitPrice,
			LineTotal:   models.NewMoneyFromDecimal(lineTotal),
		})
		subtotals[group.ShopID] = subtotals[group.ShopID].Add(lineTotal)
	}

	for _, group := range result.Groups {
		group.RawSubtotal = models.NewMoneyFromDecimal(subtotals[group.ShopID])
		group.DiscountedSubtotal = group.RawSubtotal
		group.ShopDiscount = models.ZeroMoney()
	}
	return result, nil
}

// classifyCartLine 返回失效原因，有效时返回空串
func classifyCartLine(line CartLine, snapshot models.VariantSnapshot) string {
	switch {
	case !snapshot.ProductActive:
		return constants.InvalidReasonProductInactive
	case snapshot.ShopBlocked:
		return constants.InvalidReasonShopBlocked
	case line.Quantity > snapshot.Stock:
		return constants.InvalidReasonOutOfStock
	case line.ExpectedUnitPrice != nil && !line.ExpectedUnitPrice.Decimal.Equal(snapshot.UnitPrice.Decimal):
		return constants.InvalidReasonPriceChanged
	}
	return ""
}

// mergeCartLines 合并重复规格的购物行，保留首次出现的位置
func mergeCartLines(lines []CartLine) ([]CartLine, error) {
	if len(lines) == 0 {
		return nil, ErrCartEmpty
	}
	merged := make([]CartLine, 0, len(lines))
	indexMap := make(map[uint]int, len(lines))
	for _, line := range lines {
		if line.VariantID == 0 || line.Quantity <= 0 {
			return nil, ErrInvalidCartLine
		}
		if idx, ok := indexMap[line.VariantID]; ok {
			merged[idx].Quantity += line.Quantity
			if merged[idx].ExpectedUnitPrice == nil && line.ExpectedUnitPrice != nil {
				price := *line.ExpectedUnitPrice
				merged[idx].ExpectedUnitPrice = &price
			}
			continue
		}
		if line.ExpectedUnitPrice != nil {
			price := *line.ExpectedUnitPrice
			line.ExpectedUnitPrice = &price
		}
		indexMap[line.VariantID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}
