package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mpiyush15/pixels-official-sub001/internal/config"
	"github.com/mpiyush15/pixels-official-sub001/internal/db"
	"github.com/mpiyush15/pixels-official-sub001/internal/models"
	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

var allCollections = []string{
	clientsCollection, projectsCollection, invoicesCollection, paymentsCollection,
	salariesCollection, cashflowCollection, personalAccountsCollection,
	leadsCollection, workSubmissionsCollection, tasksCollection, readNotificationsCollection,
	settingsCollection, emailTemplatesCollection,
}

func testConfig() *config.Config {
	return &config.Config{
		AppName:                "Pixels",
		CurrencyCode:           "INR",
		InvoicePaymentDueDays:  7,
		InvoiceDocumentLinkTTL: 7 * 24 * time.Hour,
		UploadURLTTL:           time.Hour,
		AdminEmployeeID:        "EMP-ADMIN",
		NotificationLookback:   7 * 24 * time.Hour,
		AdminNotificationCap:   30,
		DeadlineWarningWindow:  48 * time.Hour,
		SmtpFromAddress:        "noreply@pixels.example.com",
	}
}

// setupLedgerDB returns a clean database with indexes in place, or skips when MongoDB is down.
func setupLedgerDB(t *testing.T, name string) *mongo.Database {
	t.Helper()
	database := utils.SetupTestDB(t, "testdb_"+name, allCollections...)
	require.NoError(t, EnsureIndexes(context.Background(), database))
	return database
}

func directTx() db.TxRunner { return db.NewTxRunner(nil, false) }

func testSettings(database *mongo.Database) ISettingsService {
	return NewSettingsService(database, testConfig(), nil)
}

func countDocs(t *testing.T, database *mongo.Database, coll string, filter bson.M) int64 {
	t.Helper()
	n, err := database.Collection(coll).CountDocuments(context.Background(), filter)
	require.NoError(t, err)
	return n
}

func insertDoc(t *testing.T, database *mongo.Database, coll string, doc interface{}) {
	t.Helper()
	_, err := database.Collection(coll).InsertOne(context.Background(), doc)
	require.NoError(t, err)
}

func seedDevelopmentProject(t *testing.T, database *mongo.Database, clientID utils.SixID) *models.Project {
	t.Helper()
	now := time.Now().UTC()
	p := &models.Project{
		Base:     models.NewBase(),
		ClientID: clientID,
		Name:     "Brand Refresh",
		Type:     models.ProjectTypeDevelopment,
		Status:   models.ProjectStatusActive,
		Phases: []models.Phase{
			{ID: "ph-design", Name: "Design", Amount: 15000, Status: models.PhaseStatusLocked, PaymentStatus: models.PaymentStateUnpaid, Updates: []models.PhaseUpdate{}},
			{ID: "ph-build", Name: "Build", Amount: 40000, Status: models.PhaseStatusLocked, PaymentStatus: models.PaymentStateUnpaid, Updates: []models.PhaseUpdate{}},
		},
		TotalAmount: 55000,
		Timestamps:  models.NewTimestamps(now),
	}
	insertDoc(t, database, projectsCollection, p)
	return p
}

func seedVideoProject(t *testing.T, database *mongo.Database, clientID utils.SixID) *models.Project {
	t.Helper()
	now := time.Now().UTC()
	p := &models.Project{
		Base:     models.NewBase(),
		ClientID: clientID,
		Name:     "Launch Reels",
		Type:     models.ProjectTypeVideo,
		Status:   models.ProjectStatusActive,
		Videos: []models.Video{
			{ID: "v-teaser", Title: "Teaser", Amount: 8000, Status: models.VideoStatusInProgress, PaymentStatus: models.PaymentStateUnpaid},
			{ID: "v-main", Title: "Main Cut", Amount: 12000, Status: models.VideoStatusPending, PaymentStatus: models.PaymentStateUnpaid},
			{ID: "v-outro", Title: "Outro", Amount: 3000, Status: models.VideoStatusPending, PaymentStatus: models.PaymentStateUnpaid},
		},
		TotalAmount: 23000,
		Timestamps:  models.NewTimestamps(now),
	}
	insertDoc(t, database, projectsCollection, p)
	return p
}

func loadProject(t *testing.T, database *mongo.Database, id utils.SixID) *models.Project {
	t.Helper()
	var p models.Project
	require.NoError(t, database.Collection(projectsCollection).FindOne(context.Background(), bson.M{"_id": id}).Decode(&p))
	return &p
}
