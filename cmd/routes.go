package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spacesBack/internal/models"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders)
	authMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole(""))
	businessMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole(models.RoleBusiness))
	clientMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole(models.RoleClient))
	adminMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole(models.RoleAdmin))

	mux := pat.New()

	mux.Get("/health", standardMiddleware.ThenFunc(app.health))
	mux.Get("/metrics", standardMiddleware.Then(promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{})))
	mux.Get("/ws/autoquote", standardMiddleware.Append(app.wsAuth).ThenFunc(app.module.Hub.ServeWS))

	// Host settings
	mux.Get("/autoquote/config", businessMiddleware.ThenFunc(app.autoQuoteHandler.GetConfig))
	mux.Put("/autoquote/config", businessMiddleware.ThenFunc(app.autoQuoteHandler.UpdateConfig))
	mux.Get("/autoquote/usage", businessMiddleware.ThenFunc(app.autoQuoteHandler.GetUsage))
	mux.Get("/autoquote/templates/:id", businessMiddleware.ThenFunc(app.autoQuoteHandler.GetTemplate))
	mux.Put("/autoquote/templates/:id", businessMiddleware.ThenFunc(app.autoQuoteHandler.SaveTemplate))

	// Wallet
	mux.Get("/wallet", businessMiddleware.ThenFunc(app.walletHandler.GetWallet))
	mux.Get("/wallet/ledger", businessMiddleware.ThenFunc(app.walletHandler.GetLedger))

	// Guest intake
	mux.Post("/requests", clientMiddleware.ThenFunc(app.autoQuoteHandler.SubmitRequest))

	// Quotes
	mux.Get("/quotes/:id", authMiddleware.ThenFunc(app.quoteHandler.GetQuote))
	mux.Put("/quotes/:id", businessMiddleware.ThenFunc(app.quoteHandler.EditQuote))
	mux.Post("/quotes/:id/resend", businessMiddleware.ThenFunc(app.quoteHandler.ResendQuote))
	mux.Post("/quotes/:id/view", clientMiddleware.ThenFunc(app.quoteHandler.ViewQuote))
	mux.Post("/quotes/:id/accept", clientMiddleware.ThenFunc(app.quoteHandler.AcceptQuote))
	mux.Post("/quotes/:id/reject", clientMiddleware.ThenFunc(app.quoteHandler.RejectQuote))

	mux.Post("/device-tokens", authMiddleware.ThenFunc(app.autoQuoteHandler.RegisterDeviceToken))

	// Admin
	mux.Post("/admin/autoquote/dispatch", adminMiddleware.ThenFunc(app.adminHandler.Dispatch))
	mux.Get("/admin/autoquote/audit", adminMiddleware.ThenFunc(app.adminHandler.ListAudit))
	mux.Get("/admin/autoquote/abuse", adminMiddleware.ThenFunc(app.adminHandler.AbuseReport))
	mux.Get("/admin/autoquote/abuse/export", adminMiddleware.ThenFunc(app.adminHandler.ExportAbuseReport))
	mux.Post("/admin/wallet/:host_id/topup", adminMiddleware.ThenFunc(app.walletHandler.TopUp))
	mux.Post("/admin/wallet/:host_id/grant", adminMiddleware.ThenFunc(app.walletHandler.Grant))
	mux.Post("/admin/quotes/:id/expire", adminMiddleware.ThenFunc(app.quoteHandler.ExpireQuote))

	return mux
}

func (app *application) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
