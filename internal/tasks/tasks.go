package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/mpiyush15/pixels-official-sub001/internal/apperrors"
	"github.com/mpiyush15/pixels-official-sub001/internal/config"
	"github.com/mpiyush15/pixels-official-sub001/internal/email"
	"github.com/mpiyush15/pixels-official-sub001/internal/invoicedoc"
	"github.com/mpiyush15/pixels-official-sub001/internal/models"
	"github.com/mpiyush15/pixels-official-sub001/internal/services"
	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

// Task types.
const (
	TypeEmailDelivery   = "email:deliver"
	TypeInvoiceRender   = "invoice:render"
	TypeLedgerReconcile = "ledger:reconcile"
	TypeInvoiceOverdue  = "invoice:overdue"
)

// overdueReminderBatch caps the reminders queued by one overdue pass.
const overdueReminderBatch = 100

// Queues.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

func redisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	o := rdb.Options()
	return asynq.RedisClientOpt{Addr: o.Addr, Password: o.Password, DB: o.DB}
}

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(redisOpt(rdb))
}

// EmailTaskPayload asks for one templated email.
type EmailTaskPayload struct {
	To         string                 `json:"to"`
	TemplateID string                 `json:"template_id"`
	Locale     string                 `json:"locale,omitempty"`
	Data       map[string]interface{} `json:"data"`
}

// InvoiceRenderPayload asks for an invoice document to be rendered and stored.
type InvoiceRenderPayload struct {
	InvoiceID string `json:"invoice_id"`
	// NotifyTemplate, when set, emails the client with this template once the document is stored.
	NotifyTemplate string `json:"notify_template,omitempty"`
}

// Dispatcher enqueues background work. HTTP handlers call it after a service call succeeds.
type Dispatcher interface {
	SendEmail(ctx context.Context, payload EmailTaskPayload) error
	RenderInvoice(ctx context.Context, payload InvoiceRenderPayload) error
	Reconcile(ctx context.Context) error
}

type asynqDispatcher struct {
	client *asynq.Client
}

func NewDispatcher(client *asynq.Client) Dispatcher {
	return &asynqDispatcher{client: client}
}

func (d *asynqDispatcher) enqueue(ctx context.Context, typ string, payload interface{}, opts ...asynq.Option) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	info, err := d.client.EnqueueContext(ctx, asynq.NewTask(typ, body), opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", typ, err)
	}
	slog.DebugContext(ctx, "task enqueued", "type", typ, "id", info.ID, "queue", info.Queue)
	return nil
}

func (d *asynqDispatcher) SendEmail(ctx context.Context, payload EmailTaskPayload) error {
	return d.enqueue(ctx, TypeEmailDelivery, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(5))
}

func (d *asynqDispatcher) RenderInvoice(ctx context.Context, payload InvoiceRenderPayload) error {
	return d.enqueue(ctx, TypeInvoiceRender, payload, asynq.Queue(QueueCritical), asynq.MaxRetry(10))
}

// Reconcile runs a pass now. Only one on-demand pass is queued at a time.
func (d *asynqDispatcher) Reconcile(ctx context.Context) error {
	err := d.enqueue(ctx, TypeLedgerReconcile, struct{}{}, asynq.Queue(QueueLow), asynq.Unique(time.Minute))
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// --- Task Server (Processing tasks) ---

// TaskProcessor holds the dependencies of the task handlers.
type TaskProcessor struct {
	cfg                  *config.Config
	emailSender          email.Sender
	emailTemplateService services.IEmailTemplateService
	invoiceService       services.IInvoiceService
	reconcileService     services.IReconcileService
	dispatcher           Dispatcher
}

func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	emailTemplateService services.IEmailTemplateService,
	invoiceService services.IInvoiceService,
	reconcileService services.IReconcileService,
	dispatcher Dispatcher,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:                  cfg,
		emailSender:          emailSender,
		emailTemplateService: emailTemplateService,
		invoiceService:       invoiceService,
		reconcileService:     reconcileService,
		dispatcher:           dispatcher,
	}
}

// Mux routes every task type to its handler.
func (p *TaskProcessor) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailDelivery, p.HandleEmailDeliveryTask)
	mux.HandleFunc(TypeInvoiceRender, p.HandleInvoiceRenderTask)
	mux.HandleFunc(TypeLedgerReconcile, p.HandleLedgerReconcileTask)
	mux.HandleFunc(TypeInvoiceOverdue, p.HandleInvoiceOverdueTask)
	return mux
}

// NewServer configures an asynq server. The caller starts it with the processor's Mux.
func NewServer(rdb *redis.Client) *asynq.Server {
	return asynq.NewServer(redisOpt(rdb), asynq.Config{
		Queues: map[string]int{
			QueueCritical: 6,
			QueueDefault:  3,
			QueueLow:      1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			slog.ErrorContext(ctx, "task failed", "type", task.Type(), "payload", string(task.Payload()), "error", err)
		}),
		Logger: newAsynqLogger(),
	})
}

// NewScheduler registers the periodic reconciliation and overdue passes.
func NewScheduler(rdb *redis.Client, cfg *config.Config) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(redisOpt(rdb), &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   newAsynqLogger(),
	})
	periodic := []struct {
		spec, typ, queue string
	}{
		{cfg.ReconcileSchedule, TypeLedgerReconcile, QueueLow},
		{cfg.OverdueCheckSchedule, TypeInvoiceOverdue, QueueDefault},
	}
	for _, job := range periodic {
		if _, err := scheduler.Register(job.spec, asynq.NewTask(job.typ, nil), asynq.Queue(job.queue)); err != nil {
			return nil, fmt.Errorf("register %s schedule %q: %w", job.typ, job.spec, err)
		}
	}
	return scheduler, nil
}

// Worker is a started task server together with the periodic scheduler.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
}

// StartWorker starts processing tasks with handler and registers the periodic tasks.
// Both run in background goroutines; Shutdown stops them.
func StartWorker(rdb *redis.Client, cfg *config.Config, handler asynq.Handler) (*Worker, error) {
	server := NewServer(rdb)
	if err := server.Start(handler); err != nil {
		return nil, fmt.Errorf("start task server: %w", err)
	}
	scheduler, err := NewScheduler(rdb, cfg)
	if err != nil {
		server.Shutdown()
		return nil, err
	}
	if err := scheduler.Start(); err != nil {
		server.Shutdown()
		return nil, fmt.Errorf("start scheduler: %w", err)
	}
	return &Worker{server: server, scheduler: scheduler}, nil
}

// Shutdown stops scheduling, then waits for in-flight tasks to finish.
func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}

// --- Task Handlers ---

func (p *TaskProcessor) HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload EmailTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.To == "" {
		return fmt.Errorf("email task without recipient: %w", asynq.SkipRetry)
	}

	tmpl, err := p.emailTemplateService.GetTemplate(ctx, payload.TemplateID, payload.Locale)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("email template %s: %v: %w", payload.TemplateID, err, asynq.SkipRetry)
		}
		return err
	}

	data := map[string]interface{}{"app_name": p.cfg.AppName}
	for k, v := range payload.Data {
		data[k] = v
	}
	subject, err := render(tmpl.TemplateID+".subject", tmpl.Subject, data)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	body, err := render(tmpl.TemplateID+".body", tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	from := p.cfg.SmtpFromAddress
	if from == "" {
		from = "noreply@example.com"
		slog.WarnContext(ctx, "SMTP from address not configured, using fallback", "from", from)
	}
	raw := email.Message{
		From:       from,
		To:         payload.To,
		Subject:    subject,
		Body:       body,
		TemplateID: payload.TemplateID,
	}.Bytes()

	if err := p.emailSender.Send(ctx, []string{payload.To}, subject, raw); err != nil {
		return err
	}
	slog.InfoContext(ctx, "email task processed", "to", payload.To, "template", payload.TemplateID)
	return nil
}

func render(name, src string, data map[string]interface{}) (string, error) {
	tmpl, err := template.New(name).Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

// HandleInvoiceRenderTask stores the invoice document and, when asked, emails the client a link.
func (p *TaskProcessor) HandleInvoiceRenderTask(ctx context.Context, t *asynq.Task) error {
	var payload InvoiceRenderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal invoice render payload: %v: %w", err, asynq.SkipRetry)
	}
	invoiceID, err := utils.ParseSixID(payload.InvoiceID)
	if err != nil {
		return fmt.Errorf("invalid invoice id %q: %w", payload.InvoiceID, asynq.SkipRetry)
	}

	ref, err := p.invoiceService.CreateAndUpload(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrBadRequest) {
			return fmt.Errorf("render invoice %s: %v: %w", payload.InvoiceID, err, asynq.SkipRetry)
		}
		return err
	}
	slog.InfoContext(ctx, "invoice document stored", "invoice_id", payload.InvoiceID, "key", ref.Key)

	if payload.NotifyTemplate == "" {
		return nil
	}
	inv, client, err := p.invoiceService.InvoiceWithClient(ctx, invoiceID)
	if err != nil {
		return err
	}
	if client.Email == "" {
		slog.WarnContext(ctx, "client has no email, skipping invoice notification", "client_id", client.ID.String())
		return nil
	}
	// The document is already stored, so a failed enqueue is logged rather than retried.
	err = p.dispatcher.SendEmail(ctx, EmailTaskPayload{
		To:         client.Email,
		TemplateID: payload.NotifyTemplate,
		Data:       invoiceEmailData(inv, client, ref.URL),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to enqueue invoice notification", "invoice_id", payload.InvoiceID, "template", payload.NotifyTemplate, "error", err)
	}
	return nil
}

func invoiceEmailData(inv *models.Invoice, client *models.Client, documentURL string) map[string]interface{} {
	return map[string]interface{}{
		"name":           client.Name,
		"invoice_number": inv.InvoiceNumber,
		"amount":         invoicedoc.FormatMoney(inv.Total, inv.CurrencyCode),
		"due_date":       inv.DueDate.Format("02 Jan 2006"),
		"document_url":   documentURL,
	}
}

// HandleInvoiceOverdueTask marks past-due invoices overdue and queues one reminder per invoice.
// A reminder that cannot be queued is released so the next pass picks it up again.
func (p *TaskProcessor) HandleInvoiceOverdueTask(ctx context.Context, t *asynq.Task) error {
	if _, err := p.invoiceService.MarkOverdue(ctx); err != nil {
		return err
	}
	reminders, err := p.invoiceService.ClaimOverdueReminders(ctx, overdueReminderBatch)
	if err != nil {
		return err
	}

	var errs []error
	for i := range reminders {
		inv, client := &reminders[i].Invoice, &reminders[i].Client
		if client.Email == "" {
			slog.WarnContext(ctx, "client has no email, skipping overdue reminder", "invoice_number", inv.InvoiceNumber)
			continue
		}
		link := ""
		if ref, err := p.invoiceService.DocumentLink(ctx, inv.ID, nil); err != nil {
			slog.WarnContext(ctx, "overdue reminder sent without document link", "invoice_number", inv.InvoiceNumber, "error", err)
		} else {
			link = ref.URL
		}
		err := p.dispatcher.SendEmail(ctx, EmailTaskPayload{
			To:         client.Email,
			TemplateID: models.TemplatePaymentReminder,
			Data:       invoiceEmailData(inv, client, link),
		})
		if err == nil {
			continue
		}
		errs = append(errs, fmt.Errorf("queue reminder for %s: %w", inv.InvoiceNumber, err))
		if rerr := p.invoiceService.ReleaseOverdueReminder(ctx, inv.ID); rerr != nil {
			errs = append(errs, rerr)
		}
	}
	if len(reminders) > 0 {
		slog.InfoContext(ctx, "overdue reminders processed", "claimed", len(reminders), "failed", len(errs))
	}
	return errors.Join(errs...)
}

func (p *TaskProcessor) HandleLedgerReconcileTask(ctx context.Context, t *asynq.Task) error {
	_, err := p.reconcileService.Reconcile(ctx)
	return err
}
