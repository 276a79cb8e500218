package propertydata

// Property is the subset of the provider's property record the calculators
// use.
type Property struct {
	FormattedAddress string  `json:"formattedAddress"`
	City             string  `json:"city,omitempty"`
	State            string  `json:"state,omitempty"`
	ZipCode          string  `json:"zipCode,omitempty"`
	County           string  `json:"county,omitempty"`
	PropertyType     string  `json:"propertyType,omitempty"`
	Bedrooms         float64 `json:"bedrooms,omitempty"`
	Bathrooms        float64 `json:"bathrooms,omitempty"`
	SquareFootage    float64 `json:"squareFootage,omitempty"`
	YearBuilt        int     `json:"yearBuilt,omitempty"`
	LastSalePrice    float64 `json:"lastSalePrice,omitempty"`
	LastSaleDate     string  `json:"lastSaleDate,omitempty"`
	AssessedValue    float64 `json:"assessedValue,omitempty"`
	AnnualTax        float64 `json:"annualTax,omitempty"`
}
