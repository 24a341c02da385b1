package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/alexanderramin/siteledger/internal/domain"
)

const purchaseColumns = `id, project_id, boq_item_id, reference, supplier, amount_total,
		state, order_date, created_at, updated_at`

// SQLitePurchaseRepo implements PurchaseRepo using a SQLite database.
type SQLitePurchaseRepo struct {
	db db.DBTX
}

func NewSQLitePurchaseRepo(conn db.DBTX) *SQLitePurchaseRepo {
	return &SQLitePurchaseRepo{db: conn}
}

func (r *SQLitePurchaseRepo) Create(ctx context.Context, p *domain.PurchaseOrder) error {
	query := `INSERT INTO purchase_orders (` + purchaseColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.ProjectID, nullableString(p.BOQItemID), p.Reference, p.Supplier, p.AmountTotal,
		string(p.State), p.OrderDate.Format(dateLayout), timestamp(p.CreatedAt), timestamp(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting purchase order: %w", err)
	}
	return nil
}

func (r *SQLitePurchaseRepo) GetByID(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchase_orders WHERE id = ?`
	return scanPurchase(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLitePurchaseRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.PurchaseOrder, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchase_orders WHERE project_id = ? ORDER BY order_date, created_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing purchase orders: %w", err)
	}
	defer rows.Close()

	var out []*domain.PurchaseOrder
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating purchase orders: %w", err)
	}
	return out, nil
}

func (r *SQLitePurchaseRepo) Update(ctx context.Context, p *domain.PurchaseOrder) error {
	query := `UPDATE purchase_orders SET boq_item_id = ?, reference = ?, supplier = ?, amount_total = ?,
		state = ?, order_date = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableString(p.BOQItemID), p.Reference, p.Supplier, p.AmountTotal,
		string(p.State), p.OrderDate.Format(dateLayout), timestamp(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating purchase order: %w", err)
	}
	return checkAffected(res, "purchase order")
}

func (r *SQLitePurchaseRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM purchase_orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting purchase order: %w", err)
	}
	return checkAffected(res, "purchase order")
}

func scanPurchase(row rowScanner) (*domain.PurchaseOrder, error) {
	var p domain.PurchaseOrder
	var boqItemID sql.NullString
	var stateStr, dateStr, createdAtStr, updatedAtStr string
	err := row.Scan(&p.ID, &p.ProjectID, &boqItemID, &p.Reference, &p.Supplier, &p.AmountTotal,
		&stateStr, &dateStr, &createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, notFound("purchase order", err)
	}
	p.BOQItemID = stringPtr(boqItemID)
	p.State = domain.PurchaseState(stateStr)
	if p.OrderDate, err = parseTime(dateStr, dateLayout, "order_date"); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAtStr, time.RFC3339, "created_at"); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAtStr, time.RFC3339, "updated_at"); err != nil {
		return nil, err
	}
	return &p, nil
}

const invoiceColumns = `id, project_id, reference, amount, state, progress_billing,
		billing_percentage, invoice_date, created_at, updated_at`

// SQLiteInvoiceRepo implements InvoiceRepo using a SQLite database.
type SQLiteInvoiceRepo struct {
	db db.DBTX
}

func NewSQLiteInvoiceRepo(conn db.DBTX) *SQLiteInvoiceRepo {
	return &SQLiteInvoiceRepo{db: conn}
}

func (r *SQLiteInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	query := `INSERT INTO invoices (` + invoiceColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		inv.ID, inv.ProjectID, inv.Reference, inv.Amount, string(inv.State), boolToInt(inv.ProgressBilling),
		inv.BillingPercentage, inv.InvoiceDate.Format(dateLayout), timestamp(inv.CreatedAt), timestamp(inv.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting invoice: %w", err)
	}
	return nil
}

func (r *SQLiteInvoiceRepo) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ?`
	return scanInvoice(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteInvoiceRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE project_id = ? ORDER BY invoice_date, created_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	var out []*domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoices: %w", err)
	}
	return out, nil
}

func (r *SQLiteInvoiceRepo) Update(ctx context.Context, inv *domain.Invoice) error {
	query := `UPDATE invoices SET reference = ?, amount = ?, state = ?, progress_billing = ?,
		billing_percentage = ?, invoice_date = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		inv.Reference, inv.Amount, string(inv.State), boolToInt(inv.ProgressBilling),
		inv.BillingPercentage, inv.InvoiceDate.Format(dateLayout), timestamp(inv.UpdatedAt), inv.ID,
	)
	if err != nil {
		return fmt.Errorf("updating invoice: %w", err)
	}
	return checkAffected(res, "invoice")
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var inv domain.Invoice
	var progressBilling int
	var stateStr, dateStr, createdAtStr, updatedAtStr string
	err := row.Scan(&inv.ID, &inv.ProjectID, &inv.Reference, &inv.Amount, &stateStr, &progressBilling,
		&inv.BillingPercentage, &dateStr, &createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, notFound("invoice", err)
	}
	inv.State = domain.PostingState(stateStr)
	inv.ProgressBilling = intToBool(progressBilling)
	if inv.InvoiceDate, err = parseTime(dateStr, dateLayout, "invoice_date"); err != nil {
		return nil, err
	}
	if inv.CreatedAt, err = parseTime(createdAtStr, time.RFC3339, "created_at"); err != nil {
		return nil, err
	}
	if inv.UpdatedAt, err = parseTime(updatedAtStr, time.RFC3339, "updated_at"); err != nil {
		return nil, err
	}
	return &inv, nil
}

const paymentColumns = `id, project_id, reference, amount, kind, state, payment_date, created_at, updated_at`

// SQLitePaymentRepo implements PaymentRepo using a SQLite database.
type SQLitePaymentRepo struct {
	db db.DBTX
}

func NewSQLitePaymentRepo(conn db.DBTX) *SQLitePaymentRepo {
	return &SQLitePaymentRepo{db: conn}
}

func (r *SQLitePaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (` + paymentColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.ProjectID, p.Reference, p.Amount, string(p.Kind), string(p.State),
		p.PaymentDate.Format(dateLayout), timestamp(p.CreatedAt), timestamp(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}
	return nil
}

func (r *SQLitePaymentRepo) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`
	return scanPayment(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLitePaymentRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE project_id = ? ORDER BY payment_date, created_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	var out []*domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payments: %w", err)
	}
	return out, nil
}

func (r *SQLitePaymentRepo) Update(ctx context.Context, p *domain.Payment) error {
	query := `UPDATE payments SET reference = ?, amount = ?, kind = ?, state = ?, payment_date = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		p.Reference, p.Amount, string(p.Kind), string(p.State),
		p.PaymentDate.Format(dateLayout), timestamp(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating payment: %w", err)
	}
	return checkAffected(res, "payment")
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var p domain.Payment
	var kindStr, stateStr, dateStr, createdAtStr, updatedAtStr string
	err := row.Scan(&p.ID, &p.ProjectID, &p.Reference, &p.Amount, &kindStr, &stateStr,
		&dateStr, &createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, notFound("payment", err)
	}
	p.Kind = domain.PaymentKind(kindStr)
	p.State = domain.PostingState(stateStr)
	if p.PaymentDate, err = parseTime(dateStr, dateLayout, "payment_date"); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAtStr, time.RFC3339, "created_at"); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAtStr, time.RFC3339, "updated_at"); err != nil {
		return nil, err
	}
	return &p, nil
}
