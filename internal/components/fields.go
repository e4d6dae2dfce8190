package components

import (
	"strings"

	"github.com/BigLep01/CRMdev/internal/inlineedit"
)

var companySizeChoices = []inlineedit.Choice{
	{Label: "Enterprise", Value: "ENTERPRISE"},
	{Label: "Large", Value: "LARGE"},
	{Label: "Medium", Value: "MEDIUM"},
	{Label: "Small", Value: "SMALL"},
}

var industries = []string{
	"AEROSPACE", "AGRICULTURE", "AUTOMOTIVE", "CHEMICALS", "CONSTRUCTION",
	"DEFENSE", "EDUCATION", "ENERGY", "FINANCIAL_SERVICES", "FOOD_AND_BEVERAGE",
	"GOVERNMENT", "HEALTHCARE", "HOSPITALITY", "INDUSTRIAL_MANUFACTURING",
	"INSURANCE", "LIFE_SCIENCES", "LOGISTICS", "MEDIA", "MINING", "NONPROFIT",
	"OTHER", "PHARMACEUTICALS", "PROFESSIONAL_SERVICES", "REAL_ESTATE", "RETAIL",
	"TECHNOLOGY", "TELECOMMUNICATIONS", "TRANSPORTATION", "UTILITIES",
}

var industryChoices = enumChoices(industries)

var businessTypeChoices = []inlineedit.Choice{
	{Label: "B2B", Value: "B2B"},
	{Label: "B2C", Value: "B2C"},
	{Label: "B2G", Value: "B2G"},
}

// enumLabel renders a SCREAMING_SNAKE value as "Screaming snake".
func enumLabel(v string) string {
	if v == "" {
		return ""
	}
	label := strings.ToLower(strings.ReplaceAll(v, "_", " "))
	return strings.ToUpper(label[:1]) + label[1:]
}

func enumChoices(values []string) []inlineedit.Choice {
	out := make([]inlineedit.Choice, len(values))
	for i, v := range values {
		out[i] = inlineedit.Choice{Label: enumLabel(v), Value: v}
	}
	return out
}

// companyInfoFields are the inline-editable fields of the company info
// card, in display order.
func companyInfoFields() []inlineedit.Field {
	return []inlineedit.Field{
		{Name: "companySize", Label: "Company size", Kind: inlineedit.KindEnum, Choices: companySizeChoices},
		{Name: "totalRevenue", Label: "Total revenue", Kind: inlineedit.KindNumber, Prefix: "$", Default: 0, NonNegative: true},
		{Name: "industry", Label: "Industry", Kind: inlineedit.KindEnum, Choices: industryChoices},
		{Name: "businessType", Label: "Business type", Kind: inlineedit.KindEnum, Choices: businessTypeChoices},
		{Name: "country", Label: "Country", Kind: inlineedit.KindText, Placeholder: "Country"},
		{Name: "website", Label: "Website", Kind: inlineedit.KindText, Placeholder: "Website"},
	}
}

func fieldNames(fields []inlineedit.Field) []string {
	names := make([]string, 0, len(fields)+1)
	names = append(names, "id")
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}
