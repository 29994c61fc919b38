package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"carworkshop/internal/core/apperror"
	"carworkshop/internal/domain/totals"
	"carworkshop/pkg/logger"
)

const (
	workOrdersTable        = "work_orders"
	itemPricesTable        = "item_prices"
	servicePriceListsTable = "service_price_lists"
	taxTemplatesTable      = "tax_templates"
	taxTemplateRulesTable  = "tax_template_rules"
	companiesTable         = "companies"
)

// Work orders can only be billed in these states.
var billableWorkOrderStatuses = []string{"Completed", "Closed"}

// workOrderSection describes one child table of a work order.
type workOrderSection struct {
	table      string
	refType    string
	refColumn  string
	nameColumn string
	qtyColumn  string // empty: one unit per row
	catalog    string // table holding the linked item; empty for external services
	lines      func(*totals.SourceLines) *[]totals.SourceLine
}

var workOrderSections = []workOrderSection{
	{
		table: "work_order_job_types", refType: "Job Type",
		refColumn: "job_type", nameColumn: "job_type_name", qtyColumn: "hours",
		catalog: "job_types",
		lines:   func(s *totals.SourceLines) *[]totals.SourceLine { return &s.ServiceLines },
	},
	{
		table: "work_order_service_packages", refType: "Service Package",
		refColumn: "service_package", nameColumn: "service_package_name", qtyColumn: "quantity",
		catalog: "service_packages",
		lines:   func(s *totals.SourceLines) *[]totals.SourceLine { return &s.ServicePackageLines },
	},
	{
		table: "work_order_parts", refType: "Part",
		refColumn: "part", nameColumn: "part_name", qtyColumn: "quantity",
		catalog: "parts",
		lines:   func(s *totals.SourceLines) *[]totals.SourceLine { return &s.PartLines },
	},
	{
		table: "work_order_external_services", refType: "External Service",
		refColumn: "service_name", nameColumn: "provider",
		lines: func(s *totals.SourceLines) *[]totals.SourceLine { return &s.ExternalServiceLines },
	},
}

// catalogTables maps a reference type to the table carrying its linked item.
var catalogTables = map[string]string{
	"Job Type":        "job_types",
	"Service Package": "service_packages",
	"Part":            "parts",
}

// defaultAccountColumns maps a payment method to its company default account column.
var defaultAccountColumns = map[string]string{
	totals.PaymentMethodCash:         "default_cash_account",
	totals.PaymentMethodBankTransfer: "default_bank_account",
}

type workOrderRow struct {
	Name          string  `db:"name"`
	Status        string  `db:"status"`
	BillingStatus *string `db:"billing_status"`
	Customer      *string `db:"customer"`
	Company       *string `db:"company"`
}

type workOrderLineRow struct {
	LineName    string              `db:"line_name"`
	Reference   string              `db:"reference"`
	Description string              `db:"description"`
	Quantity    decimal.NullDecimal `db:"quantity"`
	Rate        decimal.NullDecimal `db:"rate"`
	Item        *string             `db:"item"`
}

type priceRow struct {
	Rate     decimal.Decimal `db:"rate"`
	Currency *string         `db:"currency"`
}

type taxTemplateRow struct {
	Name  string  `db:"name"`
	Title *string `db:"title"`
}

// SourceAdapter implements totals.SourceAdapter over the workshop database.
// Every call runs in its own read-only transaction unless ctx already carries one.
type SourceAdapter struct {
	txManager        *TxManager
	builder          squirrel.StatementBuilderType
	defaultPriceList string
	now              func() time.Time
}

var _ totals.SourceAdapter = (*SourceAdapter)(nil)

// NewSourceAdapter creates an adapter. defaultPriceList prices work order rows without a rate.
func NewSourceAdapter(txManager *TxManager, defaultPriceList string) *SourceAdapter {
	return &SourceAdapter{
		txManager:        txManager,
		builder:          squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		defaultPriceList: defaultPriceList,
		now:              time.Now,
	}
}

// FetchSourceDocumentLines loads the billable rows of a completed work order.
// Catalog rows without a linked item are skipped; rows without a rate are priced from the default price list.
func (a *SourceAdapter) FetchSourceDocumentLines(ctx context.Context, workOrder string) (*totals.SourceLines, error) {
	ctx, span := tracer.Start(ctx, "SourceAdapter.FetchSourceDocumentLines",
		trace.WithAttributes(attribute.String("work_order", workOrder)))
	defer span.End()

	var out *totals.SourceLines
	err := a.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		wo, err := a.getWorkOrder(ctx, workOrder)
		if err != nil {
			return err
		}
		if err := checkBillable(wo); err != nil {
			return err
		}

		out = &totals.SourceLines{
			SourceID: wo.Name,
			Customer: deref(wo.Customer),
			Company:  deref(wo.Company),
		}
		for _, section := range workOrderSections {
			lines, err := a.fetchSection(ctx, workOrder, section)
			if err != nil {
				return err
			}
			*section.lines(out) = lines
		}
		return nil
	})
	if err != nil {
		return nil, spanError(span, err)
	}

	span.SetAttributes(attribute.Int("lines", out.Len()))
	return out, nil
}

func (a *SourceAdapter) getWorkOrder(ctx context.Context, name string) (*workOrderRow, error) {
	sql, args, err := a.builder.
		Select(Columns[workOrderRow]()...).
		From(workOrdersTable).
		Where(squirrel.Eq{"name": name}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build work order query: %w", err)
	}

	var row workOrderRow
	if err := pgxscan.Get(ctx, a.txManager.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("Work Order", name)
		}
		return nil, fmt.Errorf("get work order: %w", err)
	}
	return &row, nil
}

func checkBillable(wo *workOrderRow) error {
	billable := false
	for _, s := range billableWorkOrderStatuses {
		if wo.Status == s {
			billable = true
			break
		}
	}
	if !billable {
		return apperror.NewValidation("Work Order must be 'Completed' or 'Closed' before billing").
			WithDetail("status", wo.Status)
	}
	if deref(wo.BillingStatus) == "Billed" {
		return apperror.NewValidation("Work Order is already billed").
			WithDetail("workOrder", wo.Name)
	}
	return nil
}

func (a *SourceAdapter) sectionQuery(workOrder string, s workOrderSection) squirrel.SelectBuilder {
	qty := "1::numeric"
	if s.qtyColumn != "" {
		qty = "l." + s.qtyColumn
	}
	q := a.builder.Select(
		"l.name AS line_name",
		"l."+s.refColumn+" AS reference",
		"COALESCE(l."+s.nameColumn+", '') AS description",
		qty+" AS quantity",
		"l.rate AS rate",
	).From(s.table + " l")

	if s.catalog != "" {
		q = q.Column("c.item AS item").
			LeftJoin(s.catalog + " c ON c.name = l." + s.refColumn)
	} else {
		q = q.Column("NULL::text AS item")
	}
	return q.Where(squirrel.Eq{"l.parent": workOrder}).OrderBy("l.idx")
}

func (a *SourceAdapter) fetchSection(ctx context.Context, workOrder string, s workOrderSection) ([]totals.SourceLine, error) {
	sql, args, err := a.sectionQuery(workOrder, s).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", s.table, err)
	}

	var rows []workOrderLineRow
	if err := pgxscan.Select(ctx, a.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", s.table, err)
	}

	lines := make([]totals.SourceLine, 0, len(rows))
	for _, row := range rows {
		if s.catalog != "" && deref(row.Item) == "" {
			logger.Debug(ctx, "skipping work order row without linked item",
				"table", s.table, "reference", row.Reference)
			continue
		}
		line := totals.SourceLine{
			Reference:   totals.Reference{Type: s.refType, ID: row.Reference},
			Description: row.Description,
			Quantity:    nullZero(row.Quantity),
			Rate:        nullZero(row.Rate),
			SourceRef:   row.LineName,
		}
		if line.Rate.IsZero() && s.catalog != "" {
			price, err := a.resolvePrice(ctx, totals.PriceQuery{
				EntityType:  s.refType,
				EntityID:    row.Reference,
				PriceList:   a.defaultPriceList,
				PostingDate: a.now(),
			})
			switch {
			case err == nil:
				line.Rate = price.Rate
			case !apperror.IsNotFound(err):
				return nil, err
			}
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// ResolveReferencePrice returns the selling Item Price of the entity's linked item valid on the
// posting date, falling back to the active Service Price List entry.
func (a *SourceAdapter) ResolveReferencePrice(ctx context.Context, q totals.PriceQuery) (*totals.ReferencePrice, error) {
	ctx, span := tracer.Start(ctx, "SourceAdapter.ResolveReferencePrice",
		trace.WithAttributes(
			attribute.String("entity_type", q.EntityType),
			attribute.String("entity_id", q.EntityID),
			attribute.String("price_list", q.PriceList),
		))
	defer span.End()

	if q.EntityType == "" || q.EntityID == "" {
		return nil, spanError(span, apperror.NewInvalidInput("reference", q.EntityID, "reference type and id are required"))
	}

	var price *totals.ReferencePrice
	err := a.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		price, err = a.resolvePrice(ctx, q)
		return err
	})
	if err != nil {
		return nil, spanError(span, err)
	}
	span.SetAttributes(attribute.String("price_source", price.Source))
	return price, nil
}

func (a *SourceAdapter) resolvePrice(ctx context.Context, q totals.PriceQuery) (*totals.ReferencePrice, error) {
	if q.PriceList == "" {
		q.PriceList = a.defaultPriceList
	}
	if q.PostingDate.IsZero() {
		q.PostingDate = a.now()
	}
	date := q.PostingDate.UTC().Truncate(24 * time.Hour)

	if catalog, ok := catalogTables[q.EntityType]; ok {
		item, err := a.linkedItem(ctx, catalog, q.EntityID)
		if err != nil {
			return nil, err
		}
		if item != "" {
			price, err := a.firstPrice(ctx, a.itemPriceQuery(item, q.PriceList, date))
			if err != nil {
				return nil, fmt.Errorf("item price: %w", err)
			}
			if price != nil {
				return &totals.ReferencePrice{Rate: price.Rate, Currency: deref(price.Currency), Source: totals.PriceSourceItemPrice}, nil
			}
		}
	}

	price, err := a.firstPrice(ctx, a.servicePriceQuery(q.EntityType, q.EntityID, q.PriceList, date))
	if err != nil {
		return nil, fmt.Errorf("service price list: %w", err)
	}
	if price == nil {
		return nil, apperror.NewNotFound("price", q.EntityType+"/"+q.EntityID).
			WithDetail("priceList", q.PriceList)
	}
	return &totals.ReferencePrice{Rate: price.Rate, Currency: deref(price.Currency), Source: totals.PriceSourceServicePriceList}, nil
}

func (a *SourceAdapter) linkedItem(ctx context.Context, catalog, name string) (string, error) {
	sql, args, err := a.builder.Select("COALESCE(item, '')").From(catalog).Where(squirrel.Eq{"name": name}).ToSql()
	if err != nil {
		return "", fmt.Errorf("build linked item query: %w", err)
	}
	var item string
	if err := pgxscan.Get(ctx, a.txManager.GetQuerier(ctx), &item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("get linked item: %w", err)
	}
	return item, nil
}

// validOn restricts valid_from/valid_upto (both nullable) to ranges containing date.
func validOn(date time.Time) squirrel.And {
	return squirrel.And{
		squirrel.Or{squirrel.Eq{"valid_from": nil}, squirrel.LtOrEq{"valid_from": date}},
		squirrel.Or{squirrel.Eq{"valid_upto": nil}, squirrel.GtOrEq{"valid_upto": date}},
	}
}

func (a *SourceAdapter) itemPriceQuery(item, priceList string, date time.Time) squirrel.SelectBuilder {
	return a.builder.
		Select("price_list_rate AS rate", "currency").
		From(itemPricesTable).
		Where(squirrel.Eq{"item_code": item, "price_list": priceList, "selling": true}).
		Where(validOn(date)).
		OrderBy("valid_from DESC NULLS LAST", "created_at DESC").
		Limit(1)
}

func (a *SourceAdapter) servicePriceQuery(refType, refName, priceList string, date time.Time) squirrel.SelectBuilder {
	return a.builder.
		Select("rate", "currency").
		From(servicePriceListsTable).
		Where(squirrel.Eq{
			"reference_type": refType,
			"reference_name": refName,
			"price_list":     priceList,
			"is_active":      true,
		}).
		Where(validOn(date)).
		OrderBy("valid_from DESC NULLS LAST", "created_at DESC").
		Limit(1)
}

// firstPrice returns nil when the query yields no row.
func (a *SourceAdapter) firstPrice(ctx context.Context, q squirrel.SelectBuilder) (*priceRow, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build price query: %w", err)
	}
	var row priceRow
	if err := pgxscan.Get(ctx, a.txManager.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ResolveDefaultAccount returns the company default account for Cash or Bank Transfer.
func (a *SourceAdapter) ResolveDefaultAccount(ctx context.Context, company, paymentMethod string) (string, error) {
	ctx, span := tracer.Start(ctx, "SourceAdapter.ResolveDefaultAccount",
		trace.WithAttributes(
			attribute.String("company", company),
			attribute.String("payment_method", paymentMethod),
		))
	defer span.End()

	column, ok := defaultAccountColumns[paymentMethod]
	if !ok {
		return "", spanError(span, apperror.NewNotFound("default account", paymentMethod))
	}

	sql, args, err := a.builder.
		Select("COALESCE(" + column + ", '')").
		From(companiesTable).
		Where(squirrel.Eq{"name": company}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build account query: %w", err)
	}

	var account string
	err = a.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		return pgxscan.Get(ctx, a.txManager.GetQuerier(ctx), &account, sql, args...)
	})
	switch {
	case pgxscan.NotFound(err):
		return "", spanError(span, apperror.NewNotFound("Company", company))
	case err != nil:
		return "", spanError(span, fmt.Errorf("get default account: %w", err))
	case account == "":
		return "", spanError(span, apperror.NewNotFound("default account", paymentMethod).
			WithDetail("company", company))
	}
	return account, nil
}

// GetTaxTemplate loads a tax template with its rules in row order.
func (a *SourceAdapter) GetTaxTemplate(ctx context.Context, templateID string) (*totals.TaxTemplate, error) {
	ctx, span := tracer.Start(ctx, "SourceAdapter.GetTaxTemplate",
		trace.WithAttributes(attribute.String("template_id", templateID)))
	defer span.End()

	var tmpl *totals.TaxTemplate
	err := a.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		sql, args, err := a.builder.
			Select(Columns[taxTemplateRow]()...).
			From(taxTemplatesTable).
			Where(squirrel.Eq{"name": templateID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build tax template query: %w", err)
		}

		var row taxTemplateRow
		querier := a.txManager.GetQuerier(ctx)
		if err := pgxscan.Get(ctx, querier, &row, sql, args...); err != nil {
			if pgxscan.NotFound(err) {
				return apperror.NewNotFound("tax template", templateID)
			}
			return fmt.Errorf("get tax template: %w", err)
		}

		sql, args, err = a.taxRulesQuery(templateID).ToSql()
		if err != nil {
			return fmt.Errorf("build tax rules query: %w", err)
		}
		var rules []totals.TaxRule
		if err := pgxscan.Select(ctx, querier, &rules, sql, args...); err != nil {
			return fmt.Errorf("select tax rules: %w", err)
		}

		tmpl = &totals.TaxTemplate{ID: row.Name, Title: deref(row.Title), Rules: rules}
		return nil
	})
	if err != nil {
		return nil, spanError(span, err)
	}
	span.SetAttributes(attribute.Int("rules", len(tmpl.Rules)))
	return tmpl, nil
}

func (a *SourceAdapter) taxRulesQuery(templateID string) squirrel.SelectBuilder {
	return a.builder.
		Select(
			"charge_type",
			"rate",
			"COALESCE(account_head, '') AS account_head",
			"COALESCE(description, '') AS description",
		).
		From(taxTemplateRulesTable).
		Where(squirrel.Eq{"parent": templateID}).
		OrderBy("idx")
}

func spanError(span trace.Span, err error) error {
	if apperror.IsNotFound(err) {
		span.SetAttributes(attribute.Bool("not_found", true))
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}
