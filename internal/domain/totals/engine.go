package totals

import (
	"context"
	"sync"

	"carworkshop/internal/core/apperror"
	"carworkshop/internal/core/id"
	"carworkshop/internal/core/types"
	"carworkshop/pkg/logger"

	"github.com/shopspring/decimal"
)

// Keys of suspending operations tracked by the stale-write guard.
const (
	keyTax     = "tax"
	keySource  = "source"
	keyAccount = "account"
)

func priceKey(lineID id.ID) string { return "price:" + lineID.String() }

// Notice is a non-fatal message for the UI (recovered invalid input, missing catalog entry).
type Notice struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Engine keeps a Document's computed fields consistent with its inputs.
//
// Local edits recompute synchronously under the engine lock. Operations that call the
// SourceAdapter release the lock while waiting; their result is committed only when no
// newer edit of the same key was issued in the meantime and the document is still a draft.
type Engine struct {
	mu sync.Mutex

	doc        *Document
	policy     Policy
	aggregator SectionAggregator
	adapter    SourceAdapter
	taxes      *TaxResolver
	log        *logger.Logger

	// template is the last committed tax template.
	template *TaxTemplate

	// version increases on every edit; pending maps a suspending key to the version
	// it was issued at.
	version uint64
	pending map[string]uint64

	notices []Notice
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l.WithComponent("totals") }
}

// WithPolicy overrides the policy derived from the document kind.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
		e.aggregator = SectionAggregator{DistinguishBillable: p.DistinguishBillable}
	}
}

// WithTaxTemplate seeds the committed tax template, e.g. when restoring a saved draft.
func WithTaxTemplate(t *TaxTemplate) Option {
	return func(e *Engine) {
		if t != nil {
			e.template = t
		}
	}
}

// NewEngine attaches an engine to doc and computes its totals.
func NewEngine(doc *Document, adapter SourceAdapter, opts ...Option) *Engine {
	policy := PolicyFor(doc.Kind)
	e := &Engine{
		doc:        doc,
		policy:     policy,
		aggregator: SectionAggregator{DistinguishBillable: policy.DistinguishBillable},
		adapter:    adapter,
		taxes:      NewTaxResolver(adapter),
		log:        logger.Default().WithComponent("totals"),
		template:   EmptyTaxTemplate(),
		pending:    make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(e)
	}
	if doc.DownPaymentType == "" {
		doc.DownPaymentType = DownPaymentNone
	}
	e.recomputeLocked()
	return e
}

// Policy returns the active policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Snapshot returns a detached copy of the document.
func (e *Engine) Snapshot() Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.clone()
}

// Totals returns the current computed fields.
func (e *Engine) Totals() Totals {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Totals.clone()
}

// DrainNotices returns and clears pending notices.
func (e *Engine) DrainNotices() []Notice {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.notices
	e.notices = nil
	return out
}

// --- Line edits (local, atomic) ---

// AddLine appends a line and recomputes.
func (e *Engine) AddLine(item *LineItem) error {
	if item == nil {
		return apperror.NewInvalidInput("line", nil, "line is required")
	}
	if err := item.Validate(); err != nil {
		return err
	}
	if !e.policy.Allows(item.Category) {
		return apperror.NewValidation("category is not allowed on this document").
			WithDetail("category", string(item.Category)).
			WithDetail("kind", string(e.doc.Kind))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.doc.CanModify(); err != nil {
		return err
	}
	if _, exists := e.doc.Line(item.ID); exists {
		return apperror.NewValidation("duplicate line id").WithDetail("line_id", item.ID.String())
	}
	item.ComputeAmount()
	e.doc.Lines = append(e.doc.Lines, item)
	e.touch()
	e.recomputeLocked()
	return nil
}

// RemoveLine deletes a line and recomputes. In-flight price lookups for it are discarded.
func (e *Engine) RemoveLine(lineID id.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.doc.CanModify(); err != nil {
		return err
	}
	for i, l := range e.doc.Lines {
		if l.ID == lineID {
			e.doc.Lines = append(e.doc.Lines[:i], e.doc.Lines[i+1:]...)
			e.touch()
			e.supersede(priceKey(lineID))
			e.recomputeLocked()
			return nil
		}
	}
	return apperror.NewNotFound("line", lineID.String())
}

// ClearLines removes every line of the given categories, or all lines when none are given.
func (e *Engine) ClearLines(categories ...Category) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.doc.CanModify(); err != nil {
		return err
	}
	e.clearLocked(func(l *LineItem) bool {
		if len(categories) == 0 {
			return true
		}
		for _, c := range categories {
			if l.Category == c {
				return true
			}
		}
		return false
	})
	e.touch()
	e.recomputeLocked()
	return nil
}

// SetQuantity sets a line quantity. A negative value yields InvalidInput and the
// policy's recovery: the last value is kept or zero is written.
func (e *Engine) SetQuantity(lineID id.ID, q types.Quantity) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	line, err := e.editableLine(lineID)
	if err != nil {
		return err
	}
	err = line.SetQuantity(q)
	if err != nil {
		e.recoverNegative(err, "quantity", func() { _ = line.SetQuantity(decimal.Zero) })
	}
	e.touch()
	e.recomputeLocked()
	return err
}

// SetRate sets a line rate (the amount of a payment row) and supersedes any in-flight
// price lookup for the line.
func (e *Engine) SetRate(lineID id.ID, r types.Money) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	line, err := e.editableLine(lineID)
	if err != nil {
		return err
	}
	e.supersede(priceKey(lineID))
	err = line.SetRate(r)
	if err != nil {
		e.recoverNegative(err, "rate", func() { _ = line.SetRate(decimal.Zero) })
	}
	e.touch()
	e.recomputeLocked()
	return err
}

// SetBillable flips the billable flag of a line.
func (e *Engine) SetBillable(lineID id.ID, billable bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	line, err := e.editableLine(lineID)
	if err != nil {
		return err
	}
	line.Billable = billable
	e.touch()
	e.recomputeLocked()
	return nil
}

// --- Header edits (local, atomic) ---

// SetDiscount sets the discount amount.
func (e *Engine) SetDiscount(amount types.Money) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.doc.CanModify(); err != nil {
		return err
	}
	var err error
	if amount.IsNegative() {
		err = negativeErr("discountAmount", amount)
		e.recoverNegative(err, "discountAmount", func() { e.doc.DiscountAmount = decimal.Zero })
	} else {
		e.doc.DiscountAmount = amount
	}
	e.touch()
	e.recomputeLocked()
	return err
}

// SetDownPayment sets the down payment type and amount. Type None forces the amount to zero.
func (e *Engine) SetDownPayment(t DownPaymentType, amount types.Money) error {
	if !t.Valid() {
		return apperror.NewInvalidInput("downPaymentType", string(t), "unknown down payment type")
	}
	if t == "" {
		t = DownPaymentNone
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.doc.CanModify(); err != nil {
		return err
	}
	e.doc.DownPaymentType = t
	var err error
	switch {
	case t == DownPaymentNone:
		e.doc.DownPaymentAmount = decimal.Zero
	case amount.IsNegative():
		err = negativeErr("downPaymentAmount", amount)
		e.recoverNegative(err, "downPaymentAmount", func() { e.doc.DownPaymentAmount = decimal.Zero })
	default:
		e.doc.DownPaymentAmount = amount
	}
	e.touch()
	e.recomputeLocked()
	return err
}

// --- Recomputation (local, atomic) ---

// Recompute runs the full local chain: sections, subtotal, totals, balance, status.
func (e *Engine) Recompute() Totals {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recomputeLocked()
	return e.doc.Totals.clone()
}

// RecomputeSectionTotals writes every section subtotal of the document's categories.
func (e *Engine) RecomputeSectionTotals() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recomputeSectionsLocked()
}

// RecomputeSubtotal sums the non-payment section subtotals.
func (e *Engine) RecomputeSubtotal() types.Money {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recomputeSubtotalLocked()
	return e.doc.Totals.Subtotal
}

// RecomputeTotals derives grand and rounded totals from subtotal, tax and discount,
// then balance and payment status.
func (e *Engine) RecomputeTotals() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recomputeTotalsLocked()
}

// RecomputeBalance derives the effective down payment, remaining balance and balance.
func (e *Engine) RecomputeBalance() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recomputeBalanceLocked()
}

// RecomputePaymentStatus derives the payment status from the total paid.
func (e *Engine) RecomputePaymentStatus() PaymentStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recomputePaymentStatusLocked()
	return e.doc.Totals.PaymentStatus
}

func (e *Engine) recomputeLocked() {
	e.recomputeSectionsLocked()
	e.recomputeSubtotalLocked()
	e.doc.Totals.TaxAmount = ComputeTax(e.doc.Totals.Subtotal, e.template)
	e.recomputeTotalsLocked()

	t := &e.doc.Totals
	t.Computed = !(e.policy.RequireLines && len(e.doc.ChargeLines()) == 0)
}

func (e *Engine) recomputeSectionsLocked() {
	t := &e.doc.Totals
	t.Sections = e.aggregator.Sections(e.doc.Lines, e.policy.Categories)
	t.TotalServices = t.Sections[CategoryService].Add(t.Sections[CategoryServicePackage])
	t.TotalParts = t.Sections[CategoryPart]
	t.TotalExternalServices = t.Sections[CategoryExternalService]
	t.TotalExpenses = t.Sections[CategoryExpense]
	t.PaymentAmount = t.Sections[CategoryPayment]
}

func (e *Engine) recomputeSubtotalLocked() {
	t := &e.doc.Totals
	subtotal := decimal.Zero
	for c, v := range t.Sections {
		if c.IsPayment() {
			continue
		}
		subtotal = subtotal.Add(v)
	}
	t.Subtotal = subtotal
	t.TotalAmount = e.aggregator.SumAll(e.doc.Lines)
	t.BillableAmount = subtotal
	t.NonBillableAmount = t.TotalAmount.Sub(subtotal)
}

func (e *Engine) recomputeTotalsLocked() {
	t := &e.doc.Totals
	t.GrandTotal = t.Subtotal.Add(t.TaxAmount).Sub(e.doc.DiscountAmount)
	t.RoundedTotal = types.RoundWhole(t.GrandTotal)
	e.recomputeBalanceLocked()
	e.recomputePaymentStatusLocked()
}

func (e *Engine) recomputeBalanceLocked() {
	t := &e.doc.Totals
	switch e.doc.DownPaymentType {
	case DownPaymentPercentage:
		t.DownPayment = types.Percent(t.GrandTotal, e.doc.DownPaymentAmount)
	case DownPaymentFixed:
		t.DownPayment = e.doc.DownPaymentAmount
	default:
		t.DownPayment = decimal.Zero
	}
	t.RemainingBalance = t.GrandTotal.Sub(t.DownPayment)
	t.BalanceAmount = t.RemainingBalance.Sub(t.PaymentAmount)
}

func (e *Engine) recomputePaymentStatusLocked() {
	t := &e.doc.Totals
	t.TotalPaid = t.PaymentAmount.Add(t.DownPayment)
	t.PaymentStatus = PaymentStatusOf(t.TotalPaid, t.GrandTotal)
}

// PaymentStatusOf classifies a total paid against a grand total.
func PaymentStatusOf(totalPaid, grandTotal types.Money) PaymentStatus {
	switch {
	case !totalPaid.IsPositive():
		return PaymentUnpaid
	case totalPaid.LessThan(grandTotal):
		return PaymentPartiallyPaid
	default:
		return PaymentPaid
	}
}

// --- Suspending operations ---

// SetTaxTemplate selects a tax template and resolves it through the adapter.
func (e *Engine) SetTaxTemplate(ctx context.Context, templateID string) error {
	e.mu.Lock()
	if err := e.doc.CanModify(); err != nil {
		e.mu.Unlock()
		return err
	}
	previous := e.doc.TaxTemplateID
	e.doc.TaxTemplateID = templateID
	e.touch()
	token := e.issue(keyTax)
	subtotal := e.doc.Totals.Subtotal
	e.mu.Unlock()

	return e.resolveTax(ctx, token, templateID, previous, subtotal)
}

// RecomputeTax re-resolves the current tax template and recomputes tax and totals.
func (e *Engine) RecomputeTax(ctx context.Context) error {
	e.mu.Lock()
	if err := e.doc.CanModify(); err != nil {
		e.mu.Unlock()
		return err
	}
	templateID := e.doc.TaxTemplateID
	token := e.issue(keyTax)
	subtotal := e.doc.Totals.Subtotal
	e.mu.Unlock()

	return e.resolveTax(ctx, token, templateID, templateID, subtotal)
}

// resolveTax applies templateID. previous is restored on the document when the lookup
// fails, so TaxTemplateID always names the template in effect.
func (e *Engine) resolveTax(ctx context.Context, token uint64, templateID, previous string, subtotal types.Money) error {
	tmpl, err := e.taxes.Resolve(ctx, templateID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(ctx, keyTax, token) {
		return nil
	}
	e.settle(keyTax)

	if err != nil {
		if !apperror.IsNotFound(err) {
			e.log.WithContext(ctx).Warnw("tax resolution failed, keeping previous tax",
				"template", templateID, "error", err)
			e.doc.TaxTemplateID = previous
			return err
		}
		e.log.WithContext(ctx).Warnw("tax template not found, using zero tax", "template", templateID)
		e.notify("TAX_TEMPLATE_NOT_FOUND", "taxTemplateId", "Tax template "+templateID+" not found; no tax applied")
		tmpl = EmptyTaxTemplate()
	}

	e.template = tmpl
	if !e.doc.Totals.Subtotal.Equal(subtotal) {
		e.log.WithContext(ctx).Debugw("tax amount for superseded subtotal discarded",
			"issued_subtotal", subtotal.String(),
			"current_subtotal", e.doc.Totals.Subtotal.String())
	}
	e.recomputeLocked()
	e.log.WithContext(ctx).Debugw("tax committed",
		"template", templateID, "tax", e.doc.Totals.TaxAmount.String())
	return nil
}

// FetchSource replaces the document's charge lines with the lines of sourceID.
// Payment rows are kept. When the source is not found the lines stay as they were
// and the NotFound error is returned.
func (e *Engine) FetchSource(ctx context.Context, sourceID string) error {
	if sourceID == "" {
		return apperror.NewInvalidInput("sourceId", sourceID, "source document is required")
	}

	e.mu.Lock()
	if err := e.doc.CanModify(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.doc.SourceID = sourceID
	e.touch()
	token := e.issue(keySource)
	e.mu.Unlock()

	lines, err := e.adapter.FetchSourceDocumentLines(ctx, sourceID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(ctx, keySource, token) {
		return nil
	}
	e.settle(keySource)

	if err != nil {
		if apperror.IsNotFound(err) {
			e.notify("SOURCE_NOT_FOUND", "sourceId", "Source document "+sourceID+" not found")
		}
		return err
	}

	items, rejected := lines.Items()
	for _, row := range rejected {
		e.notify("SOURCE_LINE_REJECTED", "lines", "Skipped source row "+row.SourceRef+" with negative values")
	}
	e.clearLocked(func(l *LineItem) bool { return !l.Category.IsPayment() })
	for _, item := range items {
		if !e.policy.Allows(item.Category) {
			continue
		}
		e.doc.Lines = append(e.doc.Lines, item)
	}
	e.touch()
	e.recomputeLocked()
	e.log.WithContext(ctx).Debugw("source lines committed", "source", sourceID, "lines", len(items))
	return nil
}

// SetLineReference points a line at a catalog entity and resolves its rate.
// A missing price writes a zero rate and a notice.
func (e *Engine) SetLineReference(ctx context.Context, lineID id.ID, ref Reference) error {
	e.mu.Lock()
	line, err := e.editableLine(lineID)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if line.Category.IsPayment() {
		e.mu.Unlock()
		return apperror.NewInvalidInput("reference", ref.ID, "payment rows cannot reference a catalog entity")
	}
	line.Reference = ref
	e.touch()
	key := priceKey(lineID)
	if ref.ID == "" {
		e.supersede(key)
		e.mu.Unlock()
		return nil
	}
	token := e.issue(key)
	query := PriceQuery{
		EntityType:  ref.Type,
		EntityID:    ref.ID,
		PriceList:   e.doc.PriceList,
		PostingDate: e.doc.PostingDate,
	}
	e.mu.Unlock()

	price, err := e.adapter.ResolveReferencePrice(ctx, query)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(ctx, key, token) {
		return nil
	}
	e.settle(key)
	line, ok := e.doc.Line(lineID)
	if !ok || line.Reference != ref {
		e.discard(ctx, key, token)
		return nil
	}

	rate := decimal.Zero
	switch {
	case err == nil:
		rate = price.Rate
	case apperror.IsNotFound(err):
		e.log.WithContext(ctx).Warnw("no reference price, using zero rate",
			"entity_type", ref.Type, "entity_id", ref.ID)
		e.notify("PRICE_NOT_FOUND", "rate", "No price found for "+ref.Type+" "+ref.ID)
	default:
		return err
	}
	if setErr := line.SetRate(rate); setErr != nil {
		e.recoverNegative(setErr, "rate", func() { _ = line.SetRate(decimal.Zero) })
	}
	e.touch()
	e.recomputeLocked()
	return nil
}

// ApplySinglePaymentMode sets the payment method. For "Multiple" existing payment rows are
// kept (one blank row is added when there are none). Any other method replaces the rows
// with a single row carrying the grand total and resolves its default account.
func (e *Engine) ApplySinglePaymentMode(ctx context.Context, method string) error {
	e.mu.Lock()
	if err := e.doc.CanModify(); err != nil {
		e.mu.Unlock()
		return err
	}
	if !e.policy.Allows(CategoryPayment) {
		e.mu.Unlock()
		return apperror.NewValidation("document has no payment details").
			WithDetail("kind", string(e.doc.Kind))
	}
	e.doc.PaymentMethod = method
	e.touch()
	e.supersede(keyAccount)

	if method == PaymentModeMultiple {
		if len(e.doc.PaymentLines()) == 0 {
			blank, _ := NewPaymentLine("", decimal.Zero)
			e.doc.Lines = append(e.doc.Lines, blank)
		}
		e.recomputeLocked()
		e.mu.Unlock()
		return nil
	}

	e.clearLocked(func(l *LineItem) bool { return l.Category.IsPayment() })
	e.recomputeLocked()
	amount := e.doc.Totals.GrandTotal
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	row, _ := NewPaymentLine(method, amount)
	e.doc.Lines = append(e.doc.Lines, row)
	e.recomputeLocked()

	if method == "" {
		e.mu.Unlock()
		return nil
	}
	token := e.issue(keyAccount)
	company := e.doc.Company
	e.mu.Unlock()

	account, err := e.adapter.ResolveDefaultAccount(ctx, company, method)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(ctx, keyAccount, token) {
		return nil
	}
	e.settle(keyAccount)
	current, ok := e.doc.Line(row.ID)
	if !ok {
		e.discard(ctx, keyAccount, token)
		return nil
	}
	if err != nil {
		if apperror.IsNotFound(err) {
			e.notify("ACCOUNT_NOT_FOUND", "paymentAccount", "No default account for "+method+" in company "+company)
			return nil
		}
		return err
	}
	current.PaymentAccount = account
	e.recomputeLocked()
	e.log.WithContext(ctx).Debugw("payment account committed", "method", method, "account", account)
	return nil
}

// --- Submission ---

// ValidateForSubmit checks that totals are complete for the document policy.
func (e *Engine) ValidateForSubmit(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.doc.Validate(ctx); err != nil {
		return err
	}
	if e.policy.RequireLines && len(e.doc.ChargeLines()) == 0 {
		return apperror.NewValidation("at least one line item is required").
			WithDetail("field", "lines")
	}
	if !e.doc.Totals.Computed {
		return apperror.NewValidation("totals have not been computed").
			WithDetail("field", "grandTotal")
	}
	return nil
}

// Submit validates and freezes the document. Results of calls still in flight are discarded.
func (e *Engine) Submit(ctx context.Context) error {
	if err := e.ValidateForSubmit(ctx); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.MarkSubmitted()
}

// Cancel moves a submitted document to cancelled.
func (e *Engine) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.MarkCancelled()
}

// --- helpers (callers hold e.mu) ---

func (e *Engine) editableLine(lineID id.ID) (*LineItem, error) {
	if err := e.doc.CanModify(); err != nil {
		return nil, err
	}
	line, ok := e.doc.Line(lineID)
	if !ok {
		return nil, apperror.NewNotFound("line", lineID.String())
	}
	return line, nil
}

func (e *Engine) clearLocked(match func(*LineItem) bool) {
	kept := e.doc.Lines[:0]
	for _, l := range e.doc.Lines {
		if match(l) {
			e.supersede(priceKey(l.ID))
			continue
		}
		kept = append(kept, l)
	}
	for i := len(kept); i < len(e.doc.Lines); i++ {
		e.doc.Lines[i] = nil
	}
	e.doc.Lines = kept
}

func (e *Engine) recoverNegative(err error, field string, coerce func()) {
	msg := err.Error()
	if e.policy.NegativeInput == NegativeCoerceZero {
		coerce()
		msg = field + " cannot be negative; set to zero"
	}
	e.notify(apperror.CodeInvalidInput, field, msg)
}

func (e *Engine) notify(code, field, msg string) {
	e.notices = append(e.notices, Notice{Code: code, Field: field, Message: msg})
}

func (e *Engine) touch() {
	e.version++
}

// issue registers a suspending call for key at the current version.
func (e *Engine) issue(key string) uint64 {
	e.version++
	e.pending[key] = e.version
	return e.version
}

// supersede invalidates an in-flight call for key, if any.
func (e *Engine) supersede(key string) {
	if _, ok := e.pending[key]; ok {
		e.version++
		e.pending[key] = e.version
	}
}

func (e *Engine) settle(key string) {
	delete(e.pending, key)
}

// current reports whether the call issued for key at token may commit.
func (e *Engine) current(ctx context.Context, key string, token uint64) bool {
	if !e.doc.IsDraft() {
		e.discard(ctx, key, token)
		return false
	}
	if e.pending[key] != token {
		e.discard(ctx, key, token)
		return false
	}
	return true
}

func (e *Engine) discard(ctx context.Context, key string, token uint64) {
	stale := apperror.NewStaleComputation(key, token, e.version)
	e.log.WithContext(ctx).Debugw("stale computation discarded",
		"key", key, "issued", token, "current", e.version, "error", stale)
}
