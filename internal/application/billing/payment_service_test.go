package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fenceline/backend/internal/domain/billing"
	"github.com/fenceline/backend/internal/domain/partner"
	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/fenceline/backend/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type paymentFixture struct {
	docRepo      *MockDocumentRepository
	bulkRepo     *MockBulkPaymentRepository
	customerRepo *MockCustomerRepository
	creditRepo   *MockCreditTransactionRepository
	idem         *MockIdempotencyStore
	svc          *PaymentService
}

func newPaymentFixture() *paymentFixture {
	f := &paymentFixture{
		docRepo:      new(MockDocumentRepository),
		bulkRepo:     new(MockBulkPaymentRepository),
		customerRepo: new(MockCustomerRepository),
		creditRepo:   new(MockCreditTransactionRepository),
		idem:         new(MockIdempotencyStore),
	}
	f.svc = NewPaymentService(
		f.docRepo, f.bulkRepo, f.customerRepo, f.creditRepo,
		f.idem, shared.DefaultIdempotencyConfig(),
		shared.FixedClock{Instant: testNow}, zap.NewNop(),
	)
	return f
}

func invoiceWithBalance(t *testing.T, customerID uuid.UUID, number string, docDate time.Time, balance string) *billing.FinancialDocument {
	t.Helper()
	doc, err := billing.NewFinancialDocument(billing.DocumentKindInvoice, number, customerID, "Hilltop Fencing", docDate)
	require.NoError(t, err)
	li, err := billing.NewLineItem("Materials", dec("1"), dec(balance))
	require.NoError(t, err)
	require.NoError(t, doc.AddLineItem(li))
	return doc
}

func TestPaymentServiceApplyPayment(t *testing.T) {
	t.Run("applies and persists", func(t *testing.T) {
		f := newPaymentFixture()
		doc := invoiceWithBalance(t, uuid.New(), "INV-1", testNow, "335.00")
		f.docRepo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)
		f.docRepo.On("Save", mock.Anything, doc).Return(nil)

		updated, err := f.svc.ApplyPayment(context.Background(), ApplyPaymentRequest{
			DocumentID: doc.ID,
			Amount:     dec("100.00"),
			Method:     billing.MethodCheck,
			Reference:  "1042",
		})
		require.NoError(t, err)
		assert.True(t, updated.BalanceDue.Equal(dec("235.00")))
		assert.Equal(t, billing.PaymentStatusPartiallyPaid, updated.PaymentStatus)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		f := newPaymentFixture()
		doc := invoiceWithBalance(t, uuid.New(), "INV-1", testNow, "100.00")
		f.docRepo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)

		_, err := f.svc.ApplyPayment(context.Background(), ApplyPaymentRequest{
			DocumentID: doc.ID,
			Amount:     dec("0"),
			Method:     billing.MethodCash,
		})
		assert.Error(t, err)
		f.docRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("unknown document", func(t *testing.T) {
		f := newPaymentFixture()
		id := uuid.New()
		f.docRepo.On("FindByID", mock.Anything, id).Return(nil, nil)

		_, err := f.svc.ApplyPayment(context.Background(), ApplyPaymentRequest{
			DocumentID: id, Amount: dec("10"), Method: billing.MethodCash,
		})
		assert.Error(t, err)
	})
}

func TestPaymentServiceApplyBulkPayment(t *testing.T) {
	t.Run("spreads oldest first and credits remainder", func(t *testing.T) {
		f := newPaymentFixture()
		customer, err := partner.NewCustomer("Hilltop Fencing")
		require.NoError(t, err)

		older := invoiceWithBalance(t, customer.ID, "INV-1001", testNow.AddDate(0, -2, 0), "300.00")
		newer := invoiceWithBalance(t, customer.ID, "INV-1002", testNow.AddDate(0, -1, 0), "150.00")

		f.customerRepo.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
		f.docRepo.On("FindOutstandingByCustomer", mock.Anything, customer.ID, billing.DocumentKindInvoice).
			Return([]*billing.FinancialDocument{older, newer}, nil)
		f.idem.On("IsApplied", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
		f.idem.On("MarkApplied", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(true, nil)
		f.docRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.customerRepo.On("Save", mock.Anything, customer).Return(nil)
		f.creditRepo.On("Create", mock.Anything, mock.AnythingOfType("*partner.CreditTransaction")).Return(nil)
		f.bulkRepo.On("Create", mock.Anything, mock.AnythingOfType("*billing.BulkPayment")).Return(nil)

		result, err := f.svc.ApplyBulkPayment(context.Background(), BulkPaymentRequest{
			CustomerID: customer.ID,
			Amount:     dec("500.00"),
			Method:     billing.MethodCheck,
		})
		require.NoError(t, err)

		require.Len(t, result.Applications, 2)
		assert.Equal(t, "INV-1001", result.Applications[0].InvoiceNumber)
		assert.True(t, result.Applications[0].AmountApplied.Equal(dec("300.00")))
		assert.True(t, result.Applications[1].AmountApplied.Equal(dec("150.00")))
		assert.True(t, result.CreditedAmount.Equal(dec("50.00")))
		assert.True(t, result.AppliedTotal.Equal(dec("450.00")))

		assert.True(t, older.BalanceDue.IsZero())
		assert.True(t, newer.BalanceDue.IsZero())
		assert.Equal(t, billing.StatusPaid, older.Status())
		assert.True(t, customer.CreditBalance.Equal(dec("50.00")))
	})

	t.Run("bulk audit record reconciles", func(t *testing.T) {
		f := newPaymentFixture()
		customer, err := partner.NewCustomer("Hilltop Fencing")
		require.NoError(t, err)
		inv := invoiceWithBalance(t, customer.ID, "INV-1001", testNow, "80.00")

		var recorded *billing.BulkPayment
		f.customerRepo.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
		f.docRepo.On("FindOutstandingByCustomer", mock.Anything, customer.ID, billing.DocumentKindInvoice).
			Return([]*billing.FinancialDocument{inv}, nil)
		f.idem.On("IsApplied", mock.Anything, mock.Anything).Return(false, nil)
		f.idem.On("MarkApplied", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		f.docRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.customerRepo.On("Save", mock.Anything, customer).Return(nil)
		f.creditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.bulkRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			recorded = args.Get(1).(*billing.BulkPayment)
		}).Return(nil)

		_, err = f.svc.ApplyBulkPayment(context.Background(), BulkPaymentRequest{
			CustomerID: customer.ID,
			Amount:     dec("100.00"),
			Method:     billing.MethodCash,
		})
		require.NoError(t, err)

		require.NotNil(t, recorded)
		require.Len(t, recorded.Applications, 1)
		assert.Equal(t, "INV-1001", recorded.Applications[0].InvoiceNumber)
		assert.True(t, recorded.CreditedAmount.Equal(dec("20.00")))
		assert.True(t, recorded.Unaccounted().IsZero())
	})

	t.Run("credit deposit touches no invoice", func(t *testing.T) {
		f := newPaymentFixture()
		customer, err := partner.NewCustomer("Hilltop Fencing")
		require.NoError(t, err)

		f.customerRepo.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
		f.customerRepo.On("Save", mock.Anything, customer).Return(nil)
		f.creditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		var recorded *billing.BulkPayment
		f.bulkRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			recorded = args.Get(1).(*billing.BulkPayment)
		}).Return(nil)

		result, err := f.svc.ApplyBulkPayment(context.Background(), BulkPaymentRequest{
			CustomerID:      customer.ID,
			Amount:          dec("200.00"),
			Method:          billing.MethodCash,
			AsCreditDeposit: true,
		})
		require.NoError(t, err)

		assert.Empty(t, result.Applications)
		assert.True(t, result.CreditedAmount.Equal(dec("200.00")))
		assert.True(t, customer.CreditBalance.Equal(dec("200.00")))
		require.NotNil(t, recorded)
		assert.True(t, recorded.IsCreditDeposit)
		f.docRepo.AssertNotCalled(t, "FindOutstandingByCustomer", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("target subset narrows selection", func(t *testing.T) {
		f := newPaymentFixture()
		customer, err := partner.NewCustomer("Hilltop Fencing")
		require.NoError(t, err)

		a := invoiceWithBalance(t, customer.ID, "INV-1001", testNow.AddDate(0, -2, 0), "100.00")
		b := invoiceWithBalance(t, customer.ID, "INV-1002", testNow.AddDate(0, -1, 0), "100.00")

		f.customerRepo.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
		f.docRepo.On("FindOutstandingByCustomer", mock.Anything, customer.ID, billing.DocumentKindInvoice).
			Return([]*billing.FinancialDocument{a, b}, nil)
		f.idem.On("IsApplied", mock.Anything, mock.Anything).Return(false, nil)
		f.idem.On("MarkApplied", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		f.docRepo.On("Save", mock.Anything, b).Return(nil)
		f.bulkRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		result, err := f.svc.ApplyBulkPayment(context.Background(), BulkPaymentRequest{
			CustomerID:       customer.ID,
			Amount:           dec("100.00"),
			Method:           billing.MethodCash,
			TargetInvoiceIDs: []uuid.UUID{b.ID},
		})
		require.NoError(t, err)

		require.Len(t, result.Applications, 1)
		assert.Equal(t, b.ID, result.Applications[0].InvoiceID)
		assert.True(t, a.BalanceDue.Equal(dec("100.00")), "untargeted invoice untouched")
	})

	t.Run("skips share whose key is already marked", func(t *testing.T) {
		f := newPaymentFixture()
		customer, err := partner.NewCustomer("Hilltop Fencing")
		require.NoError(t, err)
		inv := invoiceWithBalance(t, customer.ID, "INV-1001", testNow, "100.00")

		f.customerRepo.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
		f.docRepo.On("FindOutstandingByCustomer", mock.Anything, customer.ID, billing.DocumentKindInvoice).
			Return([]*billing.FinancialDocument{inv}, nil)
		// the key is already present from the first attempt
		f.idem.On("IsApplied", mock.Anything, mock.Anything).Return(true, nil)
		f.bulkRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		result, err := f.svc.ApplyBulkPayment(context.Background(), BulkPaymentRequest{
			CustomerID: customer.ID,
			Amount:     dec("100.00"),
			Method:     billing.MethodCash,
		})
		require.NoError(t, err)

		require.Len(t, result.Applications, 1)
		assert.True(t, result.Applications[0].Skipped)
		assert.True(t, result.AppliedTotal.IsZero())
		assert.True(t, inv.BalanceDue.Equal(dec("100.00")), "no double application")
		f.docRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("invoice write failure reported per invoice", func(t *testing.T) {
		f := newPaymentFixture()
		customer, err := partner.NewCustomer("Hilltop Fencing")
		require.NoError(t, err)

		bad := invoiceWithBalance(t, customer.ID, "INV-1001", testNow.AddDate(0, -2, 0), "100.00")
		good := invoiceWithBalance(t, customer.ID, "INV-1002", testNow.AddDate(0, -1, 0), "100.00")

		f.customerRepo.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
		f.docRepo.On("FindOutstandingByCustomer", mock.Anything, customer.ID, billing.DocumentKindInvoice).
			Return([]*billing.FinancialDocument{bad, good}, nil)
		f.idem.On("IsApplied", mock.Anything, mock.Anything).Return(false, nil)
		f.idem.On("MarkApplied", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		f.docRepo.On("Save", mock.Anything, bad).Return(errors.New("store down"))
		f.docRepo.On("Save", mock.Anything, good).Return(nil)
		f.bulkRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		result, err := f.svc.ApplyBulkPayment(context.Background(), BulkPaymentRequest{
			CustomerID: customer.ID,
			Amount:     dec("200.00"),
			Method:     billing.MethodCash,
		})
		require.NoError(t, err)

		require.Len(t, result.Applications, 2)
		assert.NotEmpty(t, result.Applications[0].Error)
		assert.Empty(t, result.Applications[1].Error)
		assert.True(t, result.AppliedTotal.Equal(dec("100.00")))
		assert.True(t, good.BalanceDue.IsZero())
	})

	t.Run("validation rejected before any write", func(t *testing.T) {
		f := newPaymentFixture()

		_, err := f.svc.ApplyBulkPayment(context.Background(), BulkPaymentRequest{
			CustomerID: uuid.Nil,
			Amount:     dec("100.00"),
			Method:     billing.MethodCash,
		})
		assert.Error(t, err)

		_, err = f.svc.ApplyBulkPayment(context.Background(), BulkPaymentRequest{
			CustomerID: uuid.New(),
			Amount:     dec("-5"),
			Method:     billing.MethodCash,
		})
		assert.Error(t, err)

		_, err = f.svc.ApplyBulkPayment(context.Background(), BulkPaymentRequest{
			CustomerID:       uuid.New(),
			Amount:           dec("100.00"),
			Method:           billing.MethodCash,
			AsCreditDeposit:  true,
			TargetInvoiceIDs: []uuid.UUID{uuid.New()},
		})
		assert.Error(t, err)

		f.bulkRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.customerRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("payment already on invoice skips without store lookup", func(t *testing.T) {
		f := newPaymentFixture()
		customer, err := partner.NewCustomer("Hilltop Fencing")
		require.NoError(t, err)
		inv := invoiceWithBalance(t, customer.ID, "INV-1001", testNow, "100.00")

		f.customerRepo.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
		f.docRepo.On("FindOutstandingByCustomer", mock.Anything, customer.ID, billing.DocumentKindInvoice).
			Return([]*billing.FinancialDocument{inv}, nil)
		f.idem.On("IsApplied", mock.Anything, mock.Anything).Return(false, nil)
		f.idem.On("MarkApplied", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		f.docRepo.On("Save", mock.Anything, inv).Return(nil)
		f.customerRepo.On("Save", mock.Anything, customer).Return(nil)
		f.creditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.bulkRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		_, err = f.svc.ApplyBulkPayment(context.Background(), BulkPaymentRequest{
			CustomerID: customer.ID,
			Amount:     dec("150.00"),
			Method:     billing.MethodCash,
		})
		require.NoError(t, err)
		assert.Len(t, inv.Payments, 1)
	})
}

func TestPaymentServiceIdempotencyStoreDown(t *testing.T) {
	// the guard degrades to best-effort when the store is unreachable
	f := newPaymentFixture()
	customer, err := partner.NewCustomer("Hilltop Fencing")
	require.NoError(t, err)
	inv := invoiceWithBalance(t, customer.ID, "INV-1001", testNow, "100.00")

	f.customerRepo.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	f.docRepo.On("FindOutstandingByCustomer", mock.Anything, customer.ID, billing.DocumentKindInvoice).
		Return([]*billing.FinancialDocument{inv}, nil)
	f.idem.On("IsApplied", mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	f.idem.On("MarkApplied", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	f.docRepo.On("Save", mock.Anything, inv).Return(nil)
	f.bulkRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.ApplyBulkPayment(context.Background(), BulkPaymentRequest{
		CustomerID: customer.ID,
		Amount:     dec("100.00"),
		Method:     billing.MethodCash,
	})
	require.NoError(t, err)
	require.Len(t, result.Applications, 1)
	assert.False(t, result.Applications[0].Skipped)
	assert.True(t, inv.BalanceDue.IsZero())
}

func TestApplyBulkPaymentRetryWithSameKey(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	customer, err := partner.NewCustomer("Hilltop Fencing")
	require.NoError(t, err)
	const key = "bulk-2025-0713"

	newService := func(docRepo *MockDocumentRepository, bulkRepo *MockBulkPaymentRepository, customerRepo *MockCustomerRepository, creditRepo *MockCreditTransactionRepository) *PaymentService {
		return NewPaymentService(docRepo, bulkRepo, customerRepo, creditRepo,
			store, shared.DefaultIdempotencyConfig(),
			shared.FixedClock{Instant: testNow}, zap.NewNop())
	}

	// First attempt: the older invoice takes its share, the newer one's
	// write fails, the remainder lands on the customer's credit.
	older := invoiceWithBalance(t, customer.ID, "INV-1001", testNow.AddDate(0, -2, 0), "300.00")
	newer := invoiceWithBalance(t, customer.ID, "INV-1002", testNow.AddDate(0, -1, 0), "150.00")

	docRepo := new(MockDocumentRepository)
	bulkRepo := new(MockBulkPaymentRepository)
	customerRepo := new(MockCustomerRepository)
	creditRepo := new(MockCreditTransactionRepository)

	var recorded *billing.BulkPayment
	customerRepo.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	customerRepo.On("Save", mock.Anything, customer).Return(nil)
	creditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	docRepo.On("FindOutstandingByCustomer", mock.Anything, customer.ID, billing.DocumentKindInvoice).
		Return([]*billing.FinancialDocument{older, newer}, nil)
	docRepo.On("Save", mock.Anything, older).Return(nil)
	docRepo.On("Save", mock.Anything, newer).Return(errors.New("store down"))
	bulkRepo.On("FindByIdempotencyKey", mock.Anything, customer.ID, key).Return(nil, nil)
	bulkRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		recorded = args.Get(1).(*billing.BulkPayment)
	}).Return(nil)

	first, err := newService(docRepo, bulkRepo, customerRepo, creditRepo).
		ApplyBulkPayment(context.Background(), BulkPaymentRequest{
			CustomerID:     customer.ID,
			Amount:         dec("500.00"),
			Method:         billing.MethodCheck,
			IdempotencyKey: key,
		})
	require.NoError(t, err)
	require.NotNil(t, recorded)
	assert.True(t, first.AppliedTotal.Equal(dec("300.00")))
	assert.True(t, first.CreditedAmount.Equal(dec("50.00")))
	assert.True(t, customer.CreditBalance.Equal(dec("50.00")))

	// Retry of the identical request. The older invoice is paid off, so
	// the reload returns only the newer one in its stored state.
	retryNewer := invoiceWithBalance(t, customer.ID, "INV-1002", testNow.AddDate(0, -1, 0), "150.00")
	retryNewer.ID = newer.ID

	docRepo2 := new(MockDocumentRepository)
	bulkRepo2 := new(MockBulkPaymentRepository)
	customerRepo2 := new(MockCustomerRepository)
	creditRepo2 := new(MockCreditTransactionRepository)

	customerRepo2.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	docRepo2.On("FindOutstandingByCustomer", mock.Anything, customer.ID, billing.DocumentKindInvoice).
		Return([]*billing.FinancialDocument{retryNewer}, nil)
	docRepo2.On("Save", mock.Anything, retryNewer).Return(nil)
	bulkRepo2.On("FindByIdempotencyKey", mock.Anything, customer.ID, key).Return(recorded, nil)
	bulkRepo2.On("Save", mock.Anything, recorded).Return(nil)

	second, err := newService(docRepo2, bulkRepo2, customerRepo2, creditRepo2).
		ApplyBulkPayment(context.Background(), BulkPaymentRequest{
			CustomerID:     customer.ID,
			Amount:         dec("500.00"),
			Method:         billing.MethodCheck,
			IdempotencyKey: key,
		})
	require.NoError(t, err)

	// 300 + 150 applied and 50 credited: exactly the 500 received.
	require.Len(t, second.Applications, 2)
	assert.True(t, second.Applications[0].Skipped)
	assert.True(t, second.AppliedTotal.Equal(dec("150.00")))
	assert.True(t, second.CreditedAmount.IsZero())
	assert.True(t, retryNewer.BalanceDue.IsZero())
	assert.True(t, customer.CreditBalance.Equal(dec("50.00")), "remainder credited once")
	assert.True(t, recorded.Unaccounted().IsZero())
	customerRepo2.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	creditRepo2.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestApplyBulkPaymentRetryOfCompletedRun(t *testing.T) {
	// retrying a fully accounted run moves no money at all
	f := newPaymentFixture()
	customer, err := partner.NewCustomer("Hilltop Fencing")
	require.NoError(t, err)
	const key = "bulk-2025-0714"

	prior, err := billing.NewBulkPayment(customer.ID, customer.Name, dec("100.00"), testNow, billing.MethodCash)
	require.NoError(t, err)
	prior.IdempotencyKey = key
	prior.RecordApplication(uuid.New(), "INV-1001", dec("80.00"))
	prior.RecordCredit(dec("20.00"))

	f.customerRepo.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	f.bulkRepo.On("FindByIdempotencyKey", mock.Anything, customer.ID, key).Return(prior, nil)

	result, err := f.svc.ApplyBulkPayment(context.Background(), BulkPaymentRequest{
		CustomerID:     customer.ID,
		Amount:         dec("100.00"),
		Method:         billing.MethodCash,
		IdempotencyKey: key,
	})
	require.NoError(t, err)

	require.Len(t, result.Applications, 1)
	assert.True(t, result.Applications[0].Skipped)
	assert.True(t, result.AppliedTotal.IsZero())
	f.docRepo.AssertNotCalled(t, "FindOutstandingByCustomer", mock.Anything, mock.Anything, mock.Anything)
	f.docRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.customerRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.bulkRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.bulkRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestApplyBulkPaymentRetryAmountMismatch(t *testing.T) {
	f := newPaymentFixture()
	customer, err := partner.NewCustomer("Hilltop Fencing")
	require.NoError(t, err)
	const key = "bulk-2025-0715"

	prior, err := billing.NewBulkPayment(customer.ID, customer.Name, dec("100.00"), testNow, billing.MethodCash)
	require.NoError(t, err)
	prior.IdempotencyKey = key

	f.customerRepo.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	f.bulkRepo.On("FindByIdempotencyKey", mock.Anything, customer.ID, key).Return(prior, nil)

	_, err = f.svc.ApplyBulkPayment(context.Background(), BulkPaymentRequest{
		CustomerID:     customer.ID,
		Amount:         dec("250.00"),
		Method:         billing.MethodCash,
		IdempotencyKey: key,
	})
	require.Error(t, err)
	f.docRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestBulkCreditDepositRetryCreditsOnce(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	f := &paymentFixture{
		docRepo:      new(MockDocumentRepository),
		bulkRepo:     new(MockBulkPaymentRepository),
		customerRepo: new(MockCustomerRepository),
		creditRepo:   new(MockCreditTransactionRepository),
	}
	f.svc = NewPaymentService(
		f.docRepo, f.bulkRepo, f.customerRepo, f.creditRepo,
		store, shared.DefaultIdempotencyConfig(),
		shared.FixedClock{Instant: testNow}, zap.NewNop(),
	)

	customer, err := partner.NewCustomer("Hilltop Fencing")
	require.NoError(t, err)
	const key = "deposit-2025-0713"

	f.customerRepo.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	f.customerRepo.On("Save", mock.Anything, customer).Return(nil)
	f.creditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.bulkRepo.On("FindByIdempotencyKey", mock.Anything, customer.ID, key).Return(nil, nil)
	// the credit lands but the audit record write fails the first time
	f.bulkRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("store down")).Once()
	f.bulkRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	req := BulkPaymentRequest{
		CustomerID:      customer.ID,
		Amount:          dec("200.00"),
		Method:          billing.MethodCash,
		AsCreditDeposit: true,
		IdempotencyKey:  key,
	}

	_, err = f.svc.ApplyBulkPayment(context.Background(), req)
	require.Error(t, err)
	assert.True(t, customer.CreditBalance.Equal(dec("200.00")))

	result, err := f.svc.ApplyBulkPayment(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.CreditedAmount.Equal(dec("200.00")))
	assert.True(t, customer.CreditBalance.Equal(dec("200.00")), "credit moved once")
	f.customerRepo.AssertNumberOfCalls(t, "Save", 1)
	f.creditRepo.AssertNumberOfCalls(t, "Create", 1)
}

func TestApplyBulkPaymentExactAmount(t *testing.T) {
	// no remainder means no credit movement at all
	f := newPaymentFixture()
	customer, err := partner.NewCustomer("Hilltop Fencing")
	require.NoError(t, err)
	inv := invoiceWithBalance(t, customer.ID, "INV-1001", testNow, "100.00")

	f.customerRepo.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	f.docRepo.On("FindOutstandingByCustomer", mock.Anything, customer.ID, billing.DocumentKindInvoice).
		Return([]*billing.FinancialDocument{inv}, nil)
	f.idem.On("IsApplied", mock.Anything, mock.Anything).Return(false, nil)
	f.idem.On("MarkApplied", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.docRepo.On("Save", mock.Anything, inv).Return(nil)
	f.bulkRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.ApplyBulkPayment(context.Background(), BulkPaymentRequest{
		CustomerID: customer.ID,
		Amount:     dec("100.00"),
		Method:     billing.MethodCash,
	})
	require.NoError(t, err)
	assert.True(t, result.CreditedAmount.IsZero())
	assert.True(t, customer.CreditBalance.IsZero())
	f.customerRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.creditRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
