// Command seed resets the database to the demo data set: one admin user and a
// handful of sample leads. Use -fake to add generated leads on top.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/minicrm/lead-api/internal/core/domain"
	"github.com/minicrm/lead-api/internal/infrastructure/config"
	mongoinfra "github.com/minicrm/lead-api/internal/infrastructure/db/mongo"
	"github.com/minicrm/lead-api/internal/pkg/phone"
	"github.com/minicrm/lead-api/pkg/logger"
)

const (
	adminName     = "Admin User"
	adminEmail    = "admin@crm.com"
	adminPassword = "admin123"
)

type sampleNote struct {
	content string
	daysAgo int
}

type sampleLead struct {
	name, email, phone, company string
	source                      domain.LeadSource
	status                      domain.LeadStatus
	message                     string
	budget                      float64
	notes                       []sampleNote
}

var sampleLeads = []sampleLead{
	{"John Smith", "john.smith@example.com", "+1-555-0101", "Tech Solutions Inc", domain.SourceWebsite, domain.StatusNew,
		"Interested in website redesign services", 5000, nil},
	{"Sarah Johnson", "sarah.j@example.com", "+1-555-0102", "Marketing Pro", domain.SourceReferral, domain.StatusContacted,
		"Looking for SEO optimization", 3000, []sampleNote{
			{"Initial call completed. Very interested in our services.", 2},
		}},
	{"Michael Chen", "michael.chen@example.com", "+1-555-0103", "E-Commerce Plus", domain.SourceSocialMedia, domain.StatusQualified,
		"Need help with e-commerce platform", 10000, []sampleNote{
			{"Sent proposal. Waiting for feedback.", 1},
		}},
	{"Emily Rodriguez", "emily.r@example.com", "+1-555-0104", "Startup Ventures", domain.SourceEmailCampaign, domain.StatusConverted,
		"Full branding package needed", 15000, []sampleNote{
			{"Proposal accepted! Starting next week.", 3},
			{"Contract signed and payment received.", 1},
		}},
	{"David Kim", "david.kim@example.com", "+1-555-0105", "Finance Corp", domain.SourceWebsite, domain.StatusNew,
		"Interested in mobile app development", 20000, nil},
	{"Lisa Anderson", "lisa.a@example.com", "+1-555-0106", "Health & Wellness Co", domain.SourceReferral, domain.StatusContacted,
		"Need a booking system for our clinic", 7500, nil},
	{"James Wilson", "james.w@example.com", "+1-555-0107", "Real Estate Group", domain.SourceSocialMedia, domain.StatusProposal,
		"Property listing website needed", 12000, []sampleNote{
			{"Met in person. Discussed requirements in detail.", 5},
			{"Sent detailed proposal with timeline and pricing.", 2},
		}},
	{"Maria Garcia", "maria.g@example.com", "+1-555-0108", "Restaurant Chain", domain.SourceOther, domain.StatusNew,
		"Online ordering system required", 8000, nil},
}

func main() {
	fake := flag.Int("fake", 0, "number of additional generated leads")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed for generated leads")
	flag.Parse()

	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "seed"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, db, err := mongoinfra.Connect(ctx, mongoinfra.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	leads := mongoinfra.NewLeadRepository(db)
	users := mongoinfra.NewAuthRepository(db)

	if err := users.DeleteAll(ctx); err != nil {
		log.Fatal().Err(err).Msg("clear users")
	}
	if err := leads.DeleteAll(ctx); err != nil {
		log.Fatal().Err(err).Msg("clear leads")
	}
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user indexes")
	}
	if err := leads.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("lead indexes")
	}
	log.Info().Msg("cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("hash admin password")
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	admin, err := users.Create(ctx, &domain.User{
		Name:         adminName,
		Email:        adminEmail,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create admin user")
	}
	log.Info().Str("email", adminEmail).Str("password", adminPassword).Msg("admin user created")

	phones := phone.NewNormalizer(cfg.PhoneRegion)
	author := admin.Ref()

	for _, s := range sampleLeads {
		if err := insertSample(ctx, leads, phones, s, author, now); err != nil {
			log.Fatal().Err(err).Str("lead", s.email).Msg("insert sample lead")
		}
	}
	log.Info().Int("count", len(sampleLeads)).Msg("sample leads created")

	if *fake > 0 {
		created, err := insertFake(ctx, leads, phones, gofakeit.New(*seed), *fake, author, now, log)
		if err != nil {
			log.Fatal().Err(err).Msg("insert generated leads")
		}
		log.Info().Int("count", created).Msg("generated leads created")
	}

	log.Warn().Msg("database seeded; change the default admin password before going to production")
}

func insertSample(ctx context.Context, repo *mongoinfra.LeadRepository, phones *phone.Normalizer, s sampleLead, author domain.UserRef, now time.Time) error {
	budget := s.budget
	lead, err := domain.NewLead(s.name, s.email, s.phone, s.company, string(s.source), string(s.status), s.message, &budget, nil, author, now)
	if err != nil {
		return err
	}
	lead.PhoneE164 = phones.Normalize(lead.Phone)

	for _, n := range s.notes {
		note, err := domain.NewNote(n.content, author, now.AddDate(0, 0, -n.daysAgo))
		if err != nil {
			return err
		}
		lead.Notes = append(lead.Notes, *note)
	}
	return repo.Create(ctx, lead)
}

func insertFake(ctx context.Context, repo *mongoinfra.LeadRepository, phones *phone.Normalizer, f *gofakeit.Faker, n int, author domain.UserRef, now time.Time, log zerolog.Logger) (int, error) {
	sources := make([]string, len(domain.LeadSources))
	for i, s := range domain.LeadSources {
		sources[i] = string(s)
	}
	statuses := make([]string, len(domain.LeadStatuses))
	for i, s := range domain.LeadStatuses {
		statuses[i] = string(s)
	}

	created := 0
	for i := 0; i < n; i++ {
		// Spread over the last 90 days.
		createdAt := now.Add(-time.Duration(f.IntRange(0, 90*24)) * time.Hour)
		budget := f.Price(500, 25000)

		lead, err := domain.NewLead(
			f.Name(), f.Email(), f.Phone(), f.Company(),
			f.RandomString(sources), f.RandomString(statuses),
			f.Sentence(8), &budget, nil, author, createdAt,
		)
		if err != nil {
			// gofakeit occasionally produces emails the lead pattern rejects.
			log.Debug().Err(err).Msg("skipping generated lead")
			continue
		}
		lead.PhoneE164 = phones.Normalize(lead.Phone)
		if err := repo.Create(ctx, lead); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
