// Package report выгружает историю продаж и показатели дашборда в XLSX.
package report

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/analytics"
	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	SheetSoldItems    = "Sold Items"
	SheetBestSellers  = "Best Selling Products"
	SheetSalesByDate  = "Sales By Date"
	SheetFinancial    = "Financial Summary"
	ContentType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	defaultSheet      = "Sheet1"
	soldItemsDateForm = "2006-01-02 15:04"
)

var (
	soldItemsHeader   = []any{"Invoice No", "Name", "Date of Item Sold", "Cost Price", "Selling Price", "Quantity", "Total Price"}
	bestSellersHeader = []any{"Name", "UnitsSold"}
	salesByDateHeader = []any{"Date", "Total"}
	financialHeader   = []any{"Metric", "Value"}
)

// Build собирает книгу из четырёх листов. Себестоимость берётся из снимка на момент продажи.
func Build(sales []domain.Sale, dashboard analytics.Dashboard, loc *time.Location) (*excelize.File, error) {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(defaultSheet, SheetSoldItems); err != nil {
		_ = f.Close()
		return nil, err
	}
	for _, name := range []string{SheetBestSellers, SheetSalesByDate, SheetFinancial} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	writers := []func(*excelize.File) error{
		func(f *excelize.File) error { return writeSoldItems(f, sales, loc) },
		func(f *excelize.File) error { return writeBestSellers(f, dashboard.BestSellingProducts) },
		func(f *excelize.File) error { return writeSalesByDate(f, dashboard.SalesByDate) },
		func(f *excelize.File) error { return writeFinancial(f, dashboard) },
	}
	for _, write := range writers {
		if err := write(f); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	return f, nil
}

// Write строит отчёт и пишет его в w.
func Write(w io.Writer, sales []domain.Sale, dashboard analytics.Dashboard, loc *time.Location) error {
	f, err := Build(sales, dashboard, loc)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteTo(w)
	return err
}

// Bytes возвращает отчёт целиком в памяти (для загрузки в объектное хранилище).
func Bytes(sales []domain.Sale, dashboard analytics.Dashboard, loc *time.Location) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, sales, dashboard, loc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSoldItems(f *excelize.File, sales []domain.Sale, loc *time.Location) error {
	if err := setRow(f, SheetSoldItems, 1, soldItemsHeader); err != nil {
		return err
	}

	row := 2
	for _, sale := range sales {
		for _, item := range sale.Items {
			name := "Unknown"
			if item.Product != nil {
				name = item.Product.Name
			}

			values := []any{
				sale.ID,
				name,
				sale.CommittedAt.In(loc).Format(soldItemsDateForm),
				analytics.ItemCost(item).InexactFloat64(),
				item.SellPrice.InexactFloat64(),
				item.QuantitySold,
				item.TotalPrice.InexactFloat64(),
			}
			if err := setRow(f, SheetSoldItems, row, values); err != nil {
				return err
			}
			row++
		}
	}

	return nil
}

func writeBestSellers(f *excelize.File, best []analytics.BestSeller) error {
	if err := setRow(f, SheetBestSellers, 1, bestSellersHeader); err != nil {
		return err
	}
	for i, b := range best {
		if err := setRow(f, SheetBestSellers, i+2, []any{b.Name, b.TotalSold}); err != nil {
			return err
		}
	}
	return nil
}

func writeSalesByDate(f *excelize.File, byDate []analytics.DailyTotal) error {
	if err := setRow(f, SheetSalesByDate, 1, salesByDateHeader); err != nil {
		return err
	}
	for i, d := range byDate {
		if err := setRow(f, SheetSalesByDate, i+2, []any{d.Date, d.Total.InexactFloat64()}); err != nil {
			return err
		}
	}
	return nil
}

func writeFinancial(f *excelize.File, d analytics.Dashboard) error {
	rows := [][]any{
		financialHeader,
		{"Total Sales", d.TotalSales.InexactFloat64()},
		{"Total Cost", d.TotalCost.InexactFloat64()},
		{"Net Profit", d.NetProfit.InexactFloat64()},
		{"Profit Margin %", d.ProfitMargin.InexactFloat64()},
	}
	for i, r := range rows {
		if err := setRow(f, SheetFinancial, i+1, r); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
