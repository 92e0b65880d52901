package importer

import "fmt"

// Report is the part of every import result callers render: the outcome,
// row count and the error and warning lists. Success is true iff there are
// no errors; warnings never affect it.
type Report struct {
	Success  bool     `json:"success"`
	Rows     int      `json:"rows"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func newReport() Report {
	return Report{Errors: []string{}, Warnings: []string{}}
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) finish() {
	r.Success = len(r.Errors) == 0
}

// Count is one labelled created-entity counter of a result.
type Count struct {
	Label string `json:"label"`
	N     int    `json:"n"`
}

// Result is implemented by every importer's result type.
type Result interface {
	Summary() Report
	Counts() []Count
}

// CatalogResult is returned by the catalog importer.
type CatalogResult struct {
	Report
	ProductsCreated int `json:"products_created"`
	VariantsCreated int `json:"variants_created"`
}

func (r CatalogResult) Summary() Report { return r.Report }

func (r CatalogResult) Counts() []Count {
	return []Count{{"Products created", r.ProductsCreated}, {"Variants created", r.VariantsCreated}}
}

// SalesResult is returned by the direct sales importer.
type SalesResult struct {
	Report
	OrdersCreated       int `json:"orders_created"`
	TransactionsCreated int `json:"transactions_created"`
}

func (r SalesResult) Summary() Report { return r.Report }

func (r SalesResult) Counts() []Count {
	return []Count{{"Orders created", r.OrdersCreated}, {"Transactions created", r.TransactionsCreated}}
}

// VenueSalesResult is returned by the venue sales importer.
type VenueSalesResult struct {
	Report
	ShowID              string `json:"show_id,omitempty"`
	SalesCreated        int    `json:"sales_created"`
	TransactionsCreated int    `json:"transactions_created"`
}

func (r VenueSalesResult) Summary() Report { return r.Report }

func (r VenueSalesResult) Counts() []Count {
	return []Count{{"Sales created", r.SalesCreated}, {"Transactions created", r.TransactionsCreated}}
}

// VenueTotalsResult is returned by the venue night totals importer.
type VenueTotalsResult struct {
	Report
	ShowsCreated  int `json:"shows_created"`
	TotalsCreated int `json:"totals_created"`
}

func (r VenueTotalsResult) Summary() Report { return r.Report }

func (r VenueTotalsResult) Counts() []Count {
	return []Count{{"Shows created", r.ShowsCreated}, {"Totals created", r.TotalsCreated}}
}

// MetadataResult is returned by the merch metadata importer.
type MetadataResult struct {
	Report
	MetadataCreated int `json:"metadata_created"`
	MetadataUpdated int `json:"metadata_updated"`
}

func (r MetadataResult) Summary() Report { return r.Report }

func (r MetadataResult) Counts() []Count {
	return []Count{{"Metadata created", r.MetadataCreated}, {"Metadata updated", r.MetadataUpdated}}
}
