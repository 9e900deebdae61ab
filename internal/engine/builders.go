// =============================================================================
// Legacy Mongo Migrator - Canonical Document Builders
// =============================================================================
//
// One builder per entity family. Each builder walks its input batch(es),
// resolves references against already-migrated collections, normalizes
// fields, and submits the canonical document to the engine's writer. The
// legacy field codes (VENDNO, CUSTNO, ITEM, SONO, ...) are the short column
// names of the source DBF exports.
//
// The builders never fork pipeline logic per variant: everything that used
// to differ between the legacy scripts comes in through the profile policy.
//
// =============================================================================

package engine

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/ginjaninja78/legacy-mongo-migrator/internal/aggregate"
	"github.com/ginjaninja78/legacy-mongo-migrator/internal/config"
	"github.com/ginjaninja78/legacy-mongo-migrator/internal/legacy"
	"github.com/ginjaninja78/legacy-mongo-migrator/internal/report"
	"github.com/ginjaninja78/legacy-mongo-migrator/internal/resolver"
	"github.com/ginjaninja78/legacy-mongo-migrator/internal/transform"
)

// Canonical collection/field pairs used for cross-entity references.
var (
	contactRef  = []resolver.Candidate{{Collection: "contacts", Field: "contact_key"}}
	supplierRef = []resolver.Candidate{{Collection: "suppliers", Field: "vendor_number"}}
	customerRef = []resolver.Candidate{{Collection: "customers", Field: "customer_number"}}
	partRef     = []resolver.Candidate{{Collection: "parts", Field: "item_number"}}

	// companyRef links a contact back to its company: customers are tried
	// first, then suppliers, mirroring the order the entities migrate in.
	companyRef = []resolver.Candidate{
		{Collection: "customers", Field: "company_name"},
		{Collection: "suppliers", Field: "company_name"},
	}
)

// ContactKey derives the synthetic natural key for a contact document.
// Contacts had no legacy identifier, so idempotence hangs on the company
// plus the contact's (single-field) name.
func ContactKey(company, firstName string) string {
	return company + "/" + firstName
}

// addressDoc builds the address sub-document shared by suppliers and
// customers.
func addressDoc(rec legacy.Record) bson.M {
	return bson.M{
		"street":  rec.Str("ADDRESS1", ""),
		"unit":    rec.Str("ADDRESS2", ""),
		"city":    rec.Str("CITY", ""),
		"state":   rec.Str("STATE", ""),
		"country": rec.Str("COUNTRY", ""),
		"zip":     rec.Str("ZIP", ""),
	}
}

// phoneList collects the non-empty phone and fax values.
func phoneList(rec legacy.Record) []string {
	phones := []string{}
	if p := rec.Str("PHONE", ""); p != "" {
		phones = append(phones, p)
	}
	if f := rec.Str("FAXNO", ""); f != "" {
		phones = append(phones, f)
	}
	return phones
}

// =============================================================================
// SUPPLIERS
// =============================================================================

func (e *Engine) runSuppliers(ctx context.Context, profile *config.Profile, batches map[string]*legacy.Batch) error {
	records := batches[profile.Inputs[0]].Records
	e.rep = report.New(e.log, e.runID, profile.Name, len(records))

	for _, rec := range records {
		e.rep.Considered()
		vendno := rec.Str("VENDNO", "")

		companyName := rec.Str("COMPANY", "")
		if companyName == "" {
			companyName = "Unknown Company"
		}

		doc := bson.M{
			"vendor_number":     vendno,
			"company_name":      companyName,
			"phone_contacts":    phoneList(rec),
			"fax_contact":       rec.Str("FAXNO", ""),
			"address":           addressDoc(rec),
			"contacts":          []any{},
			"terms":             rec.Str("PTERMS", ""),
			"standard_discount": rec.Float("PDISC", 0),
			"notes":             rec.Str("COMMENT", ""),
			"vendor_email":      rec.Str("EMAIL", ""),
			"payment_method":    "",
		}

		// The contacts collection is migrated first; reference its
		// canonical document rather than creating one inline.
		key := ContactKey(rec.Str("COMPANY", ""), rec.Str("CONTACT", ""))
		if res, found, err := e.resolver.Resolve(ctx, contactRef, key); err != nil {
			return err
		} else if found {
			doc["contacts"] = []any{res.ID}
		}

		if err := e.submit(ctx, profile.Collection, profile.NaturalKey, vendno, doc, profile.WriteMode); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// CUSTOMERS
// =============================================================================

func (e *Engine) runCustomers(ctx context.Context, profile *config.Profile, batches map[string]*legacy.Batch) error {
	records := batches[profile.Inputs[0]].Records
	e.rep = report.New(e.log, e.runID, profile.Name, len(records))

	for _, rec := range records {
		e.rep.Considered()
		custno := rec.Str("CUSTNO", "")

		companyName := rec.Str("COMPANY", "")
		if companyName == "" {
			companyName = "Unknown Customer"
		}

		doc := bson.M{
			"customer_number": custno,
			"company_name":    companyName,
			"phone_contacts":  phoneList(rec),
			"address":         addressDoc(rec),
			"contacts":        []any{},
			"collect_account": []any{},
			"terms":           rec.Str("PTERMS", ""),
			"notes":           rec.Str("COMMENT", ""),
		}
		if profile.Policy.AttachShippingAddress {
			doc["shipping_address"] = addressDoc(rec)
		}

		key := ContactKey(rec.Str("COMPANY", ""), rec.Str("CONTACT", ""))
		if res, found, err := e.resolver.Resolve(ctx, contactRef, key); err != nil {
			return err
		} else if found {
			doc["contacts"] = []any{res.ID}
		}

		if err := e.submit(ctx, profile.Collection, profile.NaturalKey, custno, doc, profile.WriteMode); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// CONTACTS
// =============================================================================

// runContacts derives contact documents from the contact fields of every
// input batch (suppliers and customers both carry them). Contacts must be
// migrated before the entities that reference them.
func (e *Engine) runContacts(ctx context.Context, profile *config.Profile, batches map[string]*legacy.Batch) error {
	total := 0
	for _, role := range profile.Inputs {
		total += len(batches[role].Records)
	}
	e.rep = report.New(e.log, e.runID, profile.Name, total)

	for _, role := range profile.Inputs {
		for _, rec := range batches[role].Records {
			e.rep.Considered()

			name := rec.Str("CONTACT", "")
			company := rec.Str("COMPANY", "")
			if name == "" && company == "" {
				e.skip(profile.Collection, ContactKey(company, name), DecisionSkipNoMatch,
					"record carries neither a contact name nor a company")
				e.rep.SkippedUnresolved(1)
				continue
			}

			emails := []string{}
			if email := rec.Str("EMAIL", ""); email != "" {
				emails = append(emails, email)
			}

			doc := bson.M{
				"contact_key":     ContactKey(company, name),
				"first_name":      name,
				"last_name":       "",
				"email_addresses": emails,
				"phone_numbers":   phoneList(rec),
				"title":           rec.Str("TITLE", ""),
				"company":         company,
			}

			if err := e.submit(ctx, profile.Collection, profile.NaturalKey,
				ContactKey(company, name), doc, profile.WriteMode); err != nil {
				return err
			}
		}
	}
	return nil
}

// =============================================================================
// CONTACT COMPANY LINKS
// =============================================================================

// runContactLinks back-links migrated contacts to the canonical company they
// belong to. The company name is looked up as a customer first and a
// supplier second; the hit determines both the reference and the type tag.
// Update-only: a contact that never migrated is a skip, not a create.
func (e *Engine) runContactLinks(ctx context.Context, profile *config.Profile, batches map[string]*legacy.Batch) error {
	total := 0
	for _, role := range profile.Inputs {
		total += len(batches[role].Records)
	}
	e.rep = report.New(e.log, e.runID, profile.Name, total)

	for _, role := range profile.Inputs {
		for _, rec := range batches[role].Records {
			e.rep.Considered()

			company := rec.Str("COMPANY", "")
			key := ContactKey(company, rec.Str("CONTACT", ""))
			if company == "" {
				e.skip(profile.Collection, key, DecisionSkipNoMatch,
					"record carries no company to link")
				e.rep.SkippedUnresolved(1)
				continue
			}

			res, found, err := e.resolver.Resolve(ctx, companyRef, company)
			if err != nil {
				return err
			}
			if !found {
				e.skip(profile.Collection, key, DecisionSkipNoReference,
					"company "+company+" not found as customer or supplier")
				e.rep.SkippedUnresolved(1)
				continue
			}

			companyType := "supplier"
			if res.Collection == "customers" {
				companyType = "customer"
			}
			doc := bson.M{
				"company_id":   res.ID,
				"company_type": companyType,
			}

			if err := e.submit(ctx, profile.Collection, profile.NaturalKey, key, doc, profile.WriteMode); err != nil {
				return err
			}
		}
	}
	return nil
}

// =============================================================================
// PARTS
// =============================================================================

func (e *Engine) runParts(ctx context.Context, profile *config.Profile, batches map[string]*legacy.Batch) error {
	records := batches[profile.Inputs[0]].Records
	e.rep = report.New(e.log, e.runID, profile.Name, len(records))

	for _, rec := range records {
		e.rep.Considered()
		item := rec.Str("ITEM", "")

		doc := bson.M{
			"item_number":       item,
			"description":       rec.Str("DESCRIP", ""),
			"suppliers":         []any{},
			"quantity_on_hand":  rec.Int("ONHAND", 0),
			"default_price":     transform.MinorUnits(mustGet(rec, "PRICE")),
			"alternate_part_id": []any{},
		}

		// A part without a resolvable supplier still migrates; the
		// reference is optional for this entity.
		if code := rec.Str("SUPPLIER", ""); code != "" {
			res, found, err := e.resolver.Resolve(ctx, supplierRef, code)
			if err != nil {
				return err
			}
			if found {
				doc["suppliers"] = []any{res.ID}
			} else {
				e.log.Warn("supplier not found for part; migrating without reference",
					zap.String("item_number", item),
					zap.String("supplier", code))
			}
		}

		if err := e.submit(ctx, profile.Collection, profile.NaturalKey, item, doc, profile.WriteMode); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// ORDERS
// =============================================================================

// runOrders migrates sales order history: invoice lines grouped by order
// number, the order date cross-referenced from the order-lines batch when
// the invoice side omits it.
func (e *Engine) runOrders(ctx context.Context, profile *config.Profile, policy transform.DatePolicy, batches map[string]*legacy.Batch) error {
	invoices := batches[profile.Inputs[0]]

	// Secondary batch: first ORDATE per order number wins.
	dateFor := make(map[string]time.Time)
	if len(profile.Inputs) > 1 {
		for _, rec := range batches[profile.Inputs[1]].Records {
			sono := rec.Str("SONO", "")
			if _, seen := dateFor[sono]; seen {
				continue
			}
			if raw, ok := rec.Get("ORDATE"); ok {
				if t := policy.Convert(raw, time.Time{}); !t.IsZero() {
					dateFor[sono] = t
				}
			}
		}
	}

	groups := aggregate.Group(invoices.Records, "SONO")
	e.rep = report.New(e.log, e.runID, profile.Name, len(groups))

	for _, agg := range groups {
		e.rep.Considered()
		sono := agg.Key

		// Counterparty: first line wins. An unresolved customer skips
		// the whole aggregate, resolvable line items notwithstanding.
		custno := agg.FirstStr("CUSTNO", "")
		customer, found, err := e.resolver.Resolve(ctx, customerRef, custno)
		if err != nil {
			return err
		}
		if !found {
			e.skip(profile.Collection, sono, DecisionSkipNoReference,
				"customer "+custno+" not found")
			e.rep.SkippedUnresolved(1)
			continue
		}

		orderAt := e.now().UTC()
		if t, seen := dateFor[sono]; seen {
			orderAt = t
		} else if raw, has := agg.Records[0].Get("ORDATE"); has {
			orderAt = policy.Convert(raw, e.now().UTC())
		}
		shipAt := policy.Convert(firstRaw(agg, "SHIPDATE"), e.now().UTC())

		parts := []bson.M{}
		var totalPrice int64
		for _, line := range agg.Records {
			item := line.Str("ITEM", "")
			part, found, err := e.resolver.Resolve(ctx, partRef, item)
			if err != nil {
				return err
			}
			if !found {
				e.log.Warn("Part "+item+" not found for order "+sono+". Skipping line.",
					zap.String("run_id", e.runID))
				continue
			}
			qty := line.Float("QTYSHP", 0)
			price := transform.MinorUnits(mustGet(line, "PRICE"))
			parts = append(parts, bson.M{
				"part_id":  part.ID,
				"quantity": qty,
				"price":    price,
			})
			totalPrice += int64(qty * float64(price))
		}
		if len(parts) == 0 {
			e.skip(profile.Collection, sono, DecisionSkipNoReference,
				"no resolvable line items")
			e.rep.SkippedUnresolved(1)
			continue
		}

		freight := bson.M{
			"account_type":    profile.Policy.AccountType,
			"account_number":  profile.Policy.AccountNumber,
			"shipped_parts":   parts,
			"returned_parts":  []any{},
			"shipping_cost":   int64(0),
			"shipping_date":   shipAt,
			"comments":        "",
			"paid":            profile.Policy.DefaultPaid,
			"date_paid":       nil,
			"check_number":    "",
			"invoice_number":  1,
		}

		doc := bson.M{
			"order_number":                   sono,
			"customer":                       customer.ID,
			"date":                           orderAt,
			"parts":                          parts,
			"freight_methods":                []bson.M{freight},
			"dropship_methods":               []any{},
			"terms":                          profile.Policy.Terms,
			"sales_person":                   profile.Policy.SalesPersonID,
			"notes":                          "",
			"total_price":                    totalPrice,
			"status":                         profile.Policy.DefaultStatus,
			"customer_purchase_order_number": nil,
			"createdAt":                      orderAt,
			"updatedAt":                      shipAt,
		}

		if err := e.submit(ctx, profile.Collection, profile.NaturalKey, sono, doc, profile.WriteMode); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// PART DETAILS (quantities, location, notes)
// =============================================================================

// runPartDetails is the upsert variant: it refreshes quantity_on_hand,
// location, and the composed notes field from the legacy exports.
func (e *Engine) runPartDetails(ctx context.Context, profile *config.Profile, batches map[string]*legacy.Batch) error {
	records := batches[profile.Inputs[0]].Records
	e.rep = report.New(e.log, e.runID, profile.Name, len(records))

	// Note lines keyed by item, from the secondary batch.
	noteLines := make(map[string][]string)
	if len(profile.Inputs) > 1 {
		for _, rec := range batches[profile.Inputs[1]].Records {
			item := rec.Str("ITEM", "")
			noteLines[item] = []string{
				rec.Str("LINE1", ""), rec.Str("LINE2", ""), rec.Str("LINE3", ""),
				rec.Str("LINE4", ""), rec.Str("LINE5", ""), rec.Str("LINE6", ""),
			}
		}
	}

	for _, rec := range records {
		e.rep.Considered()
		item := rec.Str("ITEM", "")

		doc := bson.M{
			"quantity_on_hand": rec.Int("ONHAND", 0),
			"location":         rec.Str("SEQ", ""),
			"notes":            transform.ComposeNotes(rec.Str("VPARTNO", ""), noteLines[item]),
			"updatedAt":        e.now().UTC(),
		}

		if err := e.submit(ctx, profile.Collection, profile.NaturalKey, item, doc, profile.WriteMode); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SMALL HELPERS
// =============================================================================

// mustGet returns the raw value of a field, or nil when absent, so the
// transformer sees "missing" rather than a typed zero.
func mustGet(rec legacy.Record, name string) any {
	v, _ := rec.Get(name)
	return v
}

// firstRaw reads a raw field value from the aggregate's first record.
func firstRaw(agg *aggregate.Aggregate, name string) any {
	if len(agg.Records) == 0 {
		return nil
	}
	v, _ := agg.Records[0].Get(name)
	return v
}
