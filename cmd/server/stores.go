package main

import (
	"database/sql"

	admissionservice "careflow/internal/admission/service"
	admissionstore "careflow/internal/admission/store"
	alertservice "careflow/internal/alerts/service"
	alertstore "careflow/internal/alerts/store"
	checkinservice "careflow/internal/checkin/service"
	checkinstore "careflow/internal/checkin/store"
	"careflow/internal/events"
	eventstore "careflow/internal/events/store"
	orderservice "careflow/internal/orders/service"
	orderstore "careflow/internal/orders/store"
	referralservice "careflow/internal/referrals/service"
	referralstore "careflow/internal/referrals/store"
	riskservice "careflow/internal/risk/service"
	riskstore "careflow/internal/risk/store"
	"careflow/internal/workflow/rules"
	rulestore "careflow/internal/workflow/store"
	audit "careflow/pkg/platform/audit"
	auditmemory "careflow/pkg/platform/audit/store/memory"
	auditpostgres "careflow/pkg/platform/audit/store/postgres"
	"careflow/pkg/platform/tx"
)

// stores bundles one backend per module plus the transactor that spans them.
type stores struct {
	events     events.Store
	rules      rules.Store
	risk       riskservice.Store
	checkins   checkinservice.Store
	admissions admissionservice.Store
	orders     orderservice.Store
	alerts     alertservice.Store
	referrals  referralservice.Store
	audit      audit.Store
	transactor tx.Transactor
}

func memoryStores() *stores {
	return &stores{
		events:     eventstore.NewInMemory(),
		rules:      rulestore.NewInMemory(),
		risk:       riskstore.NewInMemory(),
		checkins:   checkinstore.NewInMemory(),
		admissions: admissionstore.NewInMemory(),
		orders:     orderstore.NewInMemory(),
		alerts:     alertstore.NewInMemory(),
		referrals:  referralstore.NewInMemory(),
		audit:      auditmemory.NewInMemoryStore(),
		transactor: tx.NewMemory(),
	}
}

func postgresStores(db *sql.DB) *stores {
	return &stores{
		events:     eventstore.NewPostgres(db),
		rules:      rulestore.NewPostgres(db),
		risk:       riskstore.NewPostgres(db),
		checkins:   checkinstore.NewPostgres(db),
		admissions: admissionstore.NewPostgres(db),
		orders:     orderstore.NewPostgres(db),
		alerts:     alertstore.NewPostgres(db),
		referrals:  referralstore.NewPostgres(db),
		audit:      auditpostgres.New(db),
		transactor: tx.NewSQL(db),
	}
}
