package params

import (
	"sort"

	"github.com/shopspring/decimal"
)

// benchmarkTariffs are the provincial coal-fired benchmark on-grid tariffs (per kWh, VAT included),
// used to seed scenario prices.
var benchmarkTariffs = map[string]decimal.Decimal{
	"Beijing":      decimal.RequireFromString("0.3598"),
	"Tianjin":      decimal.RequireFromString("0.3655"),
	"Jibei":        decimal.RequireFromString("0.372"),
	"Jinan":        decimal.RequireFromString("0.3644"),
	"Shanxi":       decimal.RequireFromString("0.332"),
	"Shandong":     decimal.RequireFromString("0.3949"),
	"Shanghai":     decimal.RequireFromString("0.4155"),
	"Jiangsu":      decimal.RequireFromString("0.391"),
	"Zhejiang":     decimal.RequireFromString("0.4153"),
	"Anhui":        decimal.RequireFromString("0.3844"),
	"Fujian":       decimal.RequireFromString("0.3932"),
	"Jiangxi":      decimal.RequireFromString("0.4143"),
	"Hubei":        decimal.RequireFromString("0.4161"),
	"Hunan":        decimal.RequireFromString("0.45"),
	"Henan":        decimal.RequireFromString("0.3779"),
	"Sichuan":      decimal.RequireFromString("0.4012"),
	"Chongqing":    decimal.RequireFromString("0.3964"),
	"Heilongjiang": decimal.RequireFromString("0.374"),
	"Liaoning":     decimal.RequireFromString("0.3749"),
	"Jilin":        decimal.RequireFromString("0.3731"),
	"Mengdong":     decimal.RequireFromString("0.3035"),
	"Mengxi":       decimal.RequireFromString("0.2829"),
	"Shaanxi":      decimal.RequireFromString("0.3545"),
	"Gansu":        decimal.RequireFromString("0.3078"),
	"Ningxia":      decimal.RequireFromString("0.2595"),
	"Qinghai":      decimal.RequireFromString("0.3247"),
	"Xinjiang":     decimal.RequireFromString("0.25"),
	"Xizang":       decimal.RequireFromString("0.4993"),
	"Guangxi":      decimal.RequireFromString("0.4207"),
	"Yunnan":       decimal.RequireFromString("0.3358"),
	"Guizhou":      decimal.RequireFromString("0.3515"),
	"Hainan":       decimal.RequireFromString("0.4298"),
	"Guangdong":    decimal.RequireFromString("0.453"),
}

// BenchmarkTariff returns the benchmark tariff of a region.
func BenchmarkTariff(region string) (float64, bool) {
	d, ok := benchmarkTariffs[region]
	if !ok {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// Regions lists the regions with a benchmark tariff, sorted by name.
func Regions() []string {
	out := make([]string, 0, len(benchmarkTariffs))
	for r := range benchmarkTariffs {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// WithRegionalPrice seeds the price from a region's benchmark tariff.
func (p Parameters) WithRegionalPrice(region string) (Parameters, bool) {
	t, ok := BenchmarkTariff(region)
	if !ok {
		return p, false
	}
	c := p.Clone()
	c.Price = t
	return c, true
}
