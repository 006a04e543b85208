package repository

// OrderListFilter 买家订单列表筛选
type OrderListFilter struct {
	BuyerID    uint
	Status     string
	ShopID     uint
	CheckoutNo string
	Page       int
	PageSize   int
}
