// src/handlers/routes.go
package handlers

import "github.com/go-chi/chi/v5"

// API groups the handlers mounted under /api.
type API struct {
	Imports       *ImportHandler
	Accounts      *AccountHandler
	Rules         *RuleHandler
	Subscriptions *SubscriptionHandler
	Snapshots     *SnapshotHandler
}

func (a *API) Mount(r chi.Router) {
	r.Route("/imports", func(r chi.Router) {
		r.Get("/", a.Imports.HandleListImports)
		r.Post("/", a.Imports.HandleIngest)
		r.Post("/upload", a.Imports.HandleUpload)
	})

	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", a.Accounts.HandleListAccounts)
		r.Post("/", a.Accounts.HandleCreateAccount)
		r.Get("/{id}", a.Accounts.HandleGetAccount)
		r.Delete("/{id}", a.Accounts.HandleArchiveAccount)
		r.Get("/{id}/transactions", a.Accounts.HandleListTransactions)
	})

	r.Get("/categories", a.Accounts.HandleListCategories)
	r.Post("/categories", a.Accounts.HandleCreateCategory)

	r.Route("/rules", func(r chi.Router) {
		r.Get("/", a.Rules.HandleListRules)
		r.Post("/", a.Rules.HandleCreateRule)
		r.Get("/{id}", a.Rules.HandleGetRule)
		r.Patch("/{id}", a.Rules.HandleUpdateRule)
		r.Delete("/{id}", a.Rules.HandleDeleteRule)
	})

	r.Route("/subscriptions", func(r chi.Router) {
		r.Get("/", a.Subscriptions.HandleListSubscriptions)
		r.Post("/detect", a.Subscriptions.HandleDetect)
		r.Patch("/{id}", a.Subscriptions.HandleUpdateSubscription)
		r.Post("/{id}/archive", a.Subscriptions.HandleArchiveSubscription)
	})

	r.Get("/snapshots", a.Snapshots.HandleListSnapshots)
}
