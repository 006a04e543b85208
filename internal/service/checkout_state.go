package service

import "github.com/dujiao-next/checkout/internal/constants"

var shopCommitTransitions = map[string][]string{
	constants.ShopCommitPriced:     {constants.ShopCommitValidating},
	constants.ShopCommitValidating: {constants.ShopCommitCommitted, constants.ShopCommitRejected},
}

// canTransition 判断店铺结算状态能否流转
func canTransition(from, to string) bool {
	for _, next := range shopCommitTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// isTerminalShopState committed 与 rejected 为终态
func isTerminalShopState(state string) bool {
	return state == constants.ShopCommitCommitted || state == constants.ShopCommitRejected
}
