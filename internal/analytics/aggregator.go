// Package analytics сворачивает историю продаж в показатели дашборда.
// Чистые функции без ввода-вывода: некорректные записи обнуляются, а не прерывают расчёт.
package analytics

import (
	"sort"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	bestSellersLimit = 5
	unknownProduct   = "Unknown"
	dateLayout       = "2006-01-02"
)

var hundred = decimal.NewFromInt(100)

// BestSeller — товар и суммарное количество проданных единиц.
type BestSeller struct {
	ProductID int64
	Name      string
	TotalSold int64
}

// DailyTotal — выручка за календарный день (YYYY-MM-DD).
type DailyTotal struct {
	Date  string
	Total decimal.Decimal
}

// Dashboard — агрегированные показатели продаж.
type Dashboard struct {
	SalesCount          int
	TotalSales          decimal.Decimal
	TotalCost           decimal.Decimal
	NetProfit           decimal.Decimal
	ProfitMargin        decimal.Decimal // в процентах
	BestSellingProducts []BestSeller
	SalesByDate         []DailyTotal
}

// Empty возвращает обнулённый дашборд, который показывается при недоступности данных.
func Empty() Dashboard {
	return Dashboard{
		TotalSales:          decimal.Zero,
		TotalCost:           decimal.Zero,
		NetProfit:           decimal.Zero,
		ProfitMargin:        decimal.Zero,
		BestSellingProducts: []BestSeller{},
		SalesByDate:         []DailyTotal{},
	}
}

// Aggregate считает показатели по всем продажам. Даты группируются в часовом поясе loc (nil = UTC).
func Aggregate(sales []domain.Sale, loc *time.Location) Dashboard {
	if loc == nil {
		loc = time.UTC
	}

	d := Empty()
	d.SalesCount = len(sales)

	for _, sale := range sales {
		d.TotalSales = d.TotalSales.Add(sale.TotalAmount)
		for _, item := range sale.Items {
			d.TotalCost = d.TotalCost.Add(ItemCost(item).Mul(decimal.NewFromInt(quantity(item))))
		}
	}

	d.NetProfit = d.TotalSales.Sub(d.TotalCost)
	d.ProfitMargin = ProfitMargin(d.TotalSales, d.NetProfit)
	d.BestSellingProducts = BestSellers(sales, bestSellersLimit)
	d.SalesByDate = SalesByDate(sales, loc)

	return d
}

// ItemCost — себестоимость единицы: снимок на момент продажи, иначе текущая цена товара, иначе 0.
func ItemCost(item domain.SaleItem) decimal.Decimal {
	if item.CostPriceAtSale != nil {
		return *item.CostPriceAtSale
	}
	if item.Product != nil {
		return item.Product.CostPrice
	}
	return decimal.Zero
}

// ProfitMargin = netProfit / totalSales * 100, округлено до сотых; 0 при нулевой выручке.
func ProfitMargin(totalSales, netProfit decimal.Decimal) decimal.Decimal {
	if totalSales.IsZero() {
		return decimal.Zero
	}
	return netProfit.Div(totalSales).Mul(hundred).Round(2)
}

// BestSellers возвращает limit товаров с наибольшим количеством проданных единиц.
// При равенстве сохраняется порядок первого появления товара в истории.
func BestSellers(sales []domain.Sale, limit int) []BestSeller {
	type key struct {
		id   int64
		name string
	}

	index := make(map[key]int)
	ranked := make([]BestSeller, 0)

	for _, sale := range sales {
		for _, item := range sale.Items {
			k := key{name: unknownProduct}
			if item.Product != nil {
				k = key{id: item.Product.ID, name: item.Product.Name}
			}

			i, ok := index[k]
			if !ok {
				i = len(ranked)
				index[k] = i
				ranked = append(ranked, BestSeller{ProductID: k.id, Name: k.name})
			}
			ranked[i].TotalSold += quantity(item)
		}
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].TotalSold > ranked[b].TotalSold
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// SalesByDate суммирует total_amount по календарным датам по возрастанию.
// Продажи без даты пропускаются.
func SalesByDate(sales []domain.Sale, loc *time.Location) []DailyTotal {
	totals := make(map[string]decimal.Decimal)
	for _, sale := range sales {
		if sale.CommittedAt.IsZero() {
			continue
		}
		day := sale.CommittedAt.In(loc).Format(dateLayout)
		totals[day] = totals[day].Add(sale.TotalAmount)
	}

	result := make([]DailyTotal, 0, len(totals))
	for day, total := range totals {
		result = append(result, DailyTotal{Date: day, Total: total})
	}
	sort.Slice(result, func(a, b int) bool {
		return result[a].Date < result[b].Date
	})

	return result
}

func quantity(item domain.SaleItem) int64 {
	if item.QuantitySold < 0 {
		return 0
	}
	return item.QuantitySold
}
