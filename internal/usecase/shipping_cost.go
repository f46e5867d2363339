package usecase

// 送料計算は差し替え可能にしておく（本来は配送業者APIの領分）。
type ShippingCostFunc func(method string, itemCount int, totalWeightGrams int64) int64

// 金額は最小通貨単位
const (
	baseShippingCost       int64 = 599
	expressShippingExtra   int64 = 799
	overnightShippingExtra int64 = 1499
	perExtraItemFee        int64 = 150
	perExtraWeightFee      int64 = 250
)

// DefaultShippingCost はフラットレートの送料計算。
func DefaultShippingCost(method string, itemCount int, totalWeightGrams int64) int64 {
	cost := baseShippingCost

	switch method {
	case "express":
		cost += expressShippingExtra
	case "overnight":
		cost += overnightShippingExtra
	}

	//2点目以降は少額加算
	if itemCount > 1 {
		cost += int64(itemCount-1) * perExtraItemFee
	}

	//1kg超は500g刻み（切り上げ）で加算
	if totalWeightGrams > 1000 {
		steps := (totalWeightGrams - 1000 + 499) / 500
		cost += steps * perExtraWeightFee
	}

	return cost
}

func isValidShippingMethod(method string) bool {
	switch method {
	case "standard", "express", "overnight":
		return true
	}
	return false
}
