package revenue

// IssuingCompanyProfile is the letterhead printed on invoices and receipts.
// It comes from configuration and is handed to renderers as-is.
type IssuingCompanyProfile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
	Address string `json:"address"`
}
