package app

import (
	"github.com/shandysiswandi/ktvs/internal/audit"
	"github.com/shandysiswandi/ktvs/internal/coupon"
	"github.com/shandysiswandi/ktvs/internal/credential"
	"github.com/shandysiswandi/ktvs/internal/entitlement"
	"github.com/shandysiswandi/ktvs/internal/generation"
	"github.com/shandysiswandi/ktvs/internal/login"
)

// initModules wires the modules in dependency order: every module writes to
// the audit log, login verifies through credentials and entitlements redeem
// through coupons.
func (a *App) initModules() {
	auditLog, err := audit.New(audit.Dependency{
		DBConn:     a.dbConn,
		Router:     a.router,
		Instrument: a.ins,
		UID:        a.snowflake,
		Clock:      a.clock,
		Validator:  a.validator,
	})
	fatalIf(err, "failed to init module audit")

	credentials, err := credential.New(credential.Dependency{
		DBConn:     a.dbConn,
		Messaging:  a.messaging,
		Router:     a.router,
		Audit:      auditLog,
		Authorizer: a.authorizer,
		Encryptor:  a.encryptor,
		Totp:       a.totp,
		Verifier:   a.verifier,
		UUID:       a.uuid,
		Clock:      a.clock,
		Validator:  a.validator,
		Config:     a.config,
		Instrument: a.ins,
		HookSecret: a.hookSecret,
	})
	fatalIf(err, "failed to init module credential")

	fatalIf(login.New(login.Dependency{
		Redis:       a.cacheConn,
		Messaging:   a.messaging,
		Router:      a.router,
		Audit:       auditLog,
		Credentials: credentials,
		Verifier:    a.verifier,
		HMAC:        a.hmac,
		JWT:         a.jwt,
		Clock:       a.clock,
		Validator:   a.validator,
		Config:      a.config,
		Instrument:  a.ins,
		HookSecret:  a.hookSecret,
	}), "failed to init module login")

	coupons, err := coupon.New(coupon.Dependency{
		DBConn:     a.dbConn,
		Messaging:  a.messaging,
		Router:     a.router,
		Audit:      auditLog,
		Authorizer: a.authorizer,
		Signer:     a.couponSign,
		Codes:      a.couponCode,
		Clock:      a.clock,
		Validator:  a.validator,
		Config:     a.config,
		Instrument: a.ins,
	})
	fatalIf(err, "failed to init module coupon")

	quota, err := entitlement.New(entitlement.Dependency{
		DBConn:     a.dbConn,
		Router:     a.router,
		Audit:      auditLog,
		Coupons:    coupons,
		Authorizer: a.authorizer,
		UUID:       a.uuid,
		Clock:      a.clock,
		Validator:  a.validator,
		Config:     a.config,
		Instrument: a.ins,
	})
	fatalIf(err, "failed to init module entitlement")

	if a.config.GetBool("modules.generation.enabled") {
		fatalIf(generation.New(a.ctx, generation.Dependency{
			Mongo:       a.mongoDB,
			Storage:     a.storage,
			Router:      a.router,
			Quota:       quota,
			Idempotency: a.idemp,
			Goroutine:   a.goroutine,
			Clock:       a.clock,
			Validator:   a.validator,
			Config:      a.config,
			Instrument:  a.ins,
		}), "failed to init module generation")
	}
}
