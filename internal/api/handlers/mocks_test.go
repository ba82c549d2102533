package handlers_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/mpiyush15/pixels-official-sub001/internal/models"
	"github.com/mpiyush15/pixels-official-sub001/internal/services"
	"github.com/mpiyush15/pixels-official-sub001/internal/tasks"
	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

// --- Mock Services ---

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) ProcessPayment(ctx context.Context, req services.PaymentRequest) (*services.PaymentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PaymentResult), args.Error(1)
}

type MockSalaryService struct {
	mock.Mock
}

func (m *MockSalaryService) CreateSalary(ctx context.Context, in services.SalaryInput) (*models.Salary, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Salary), args.Error(1)
}

func (m *MockSalaryService) GetSalary(ctx context.Context, id utils.SixID) (*models.Salary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Salary), args.Error(1)
}

func (m *MockSalaryService) ListSalaries(ctx context.Context, filter services.SalaryFilter) ([]models.Salary, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Salary), args.Error(1)
}

func (m *MockSalaryService) UpdateSalary(ctx context.Context, id utils.SixID, patch services.SalaryPatch) (*models.Salary, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Salary), args.Error(1)
}

func (m *MockSalaryService) DeleteSalary(ctx context.Context, id utils.SixID) error {
	return m.Called(ctx, id).Error(0)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Build(ctx context.Context, actor services.Actor) (*models.NotificationFeed, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NotificationFeed), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, actor services.Actor, notificationID string) error {
	return m.Called(ctx, actor, notificationID).Error(0)
}

func (m *MockNotificationService) MarkManyRead(ctx context.Context, actor services.Actor, ids []string) (int, error) {
	args := m.Called(ctx, actor, ids)
	return args.Int(0), args.Error(1)
}

type MockLeadService struct {
	mock.Mock
}

func (m *MockLeadService) ConvertLead(ctx context.Context, leadID utils.SixID) (*models.Client, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

type MockSubmissionService struct {
	mock.Mock
}

func (m *MockSubmissionService) ConvertSubmission(ctx context.Context, submissionID utils.SixID, in services.ConvertSubmissionInput) (*services.ConversionResult, error) {
	args := m.Called(ctx, submissionID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ConversionResult), args.Error(1)
}

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) CreateAndUpload(ctx context.Context, invoiceID utils.SixID) (*services.DocumentRef, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DocumentRef), args.Error(1)
}

func (m *MockInvoiceService) DocumentLink(ctx context.Context, invoiceID utils.SixID, clientID *utils.SixID) (*services.DocumentRef, error) {
	args := m.Called(ctx, invoiceID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DocumentRef), args.Error(1)
}

func (m *MockInvoiceService) InvoiceWithClient(ctx context.Context, invoiceID utils.SixID) (*models.Invoice, *models.Client, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Invoice), args.Get(1).(*models.Client), args.Error(2)
}

func (m *MockInvoiceService) MarkOverdue(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceService) ClaimOverdueReminders(ctx context.Context, limit int) ([]services.OverdueReminder, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.OverdueReminder), args.Error(1)
}

func (m *MockInvoiceService) ReleaseOverdueReminder(ctx context.Context, invoiceID utils.SixID) error {
	return m.Called(ctx, invoiceID).Error(0)
}

type MockReconcileService struct {
	mock.Mock
}

func (m *MockReconcileService) Reconcile(ctx context.Context) (*services.ReconcileReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ReconcileReport), args.Error(1)
}

type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Get(ctx context.Context) (*models.BusinessSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BusinessSettings), args.Error(1)
}

func (m *MockSettingsService) Update(ctx context.Context, patch services.SettingsPatch) (*models.BusinessSettings, error) {
	args := m.Called(ctx, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BusinessSettings), args.Error(1)
}

func (m *MockSettingsService) Load(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSettingsService) SubscribeToChanges(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockEmailTemplateService struct {
	mock.Mock
}

func (m *MockEmailTemplateService) GetTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error) {
	args := m.Called(ctx, templateID, locale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmailTemplate), args.Error(1)
}

func (m *MockEmailTemplateService) SaveTemplate(ctx context.Context, template *models.EmailTemplate) error {
	return m.Called(ctx, template).Error(0)
}

func (m *MockEmailTemplateService) DeleteTemplate(ctx context.Context, templateID, locale string) error {
	return m.Called(ctx, templateID, locale).Error(0)
}

// --- Mock Infrastructure ---

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GeneratePresignedPutURL(ctx context.Context, ownerID, filename, contentType string) (string, string, error) {
	args := m.Called(ctx, ownerID, filename, contentType)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockStorage) PutObject(ctx context.Context, key, contentType string, body []byte) error {
	return m.Called(ctx, key, contentType, body).Error(0)
}

func (m *MockStorage) PresignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) SendEmail(ctx context.Context, payload tasks.EmailTaskPayload) error {
	return m.Called(ctx, payload).Error(0)
}

func (m *MockDispatcher) RenderInvoice(ctx context.Context, payload tasks.InvoiceRenderPayload) error {
	return m.Called(ctx, payload).Error(0)
}

func (m *MockDispatcher) Reconcile(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
