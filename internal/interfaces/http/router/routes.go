package router

func registerRoutes(r *Router, h Handlers) {
	if h.Invoices != nil {
		invoices := NewResourceGroup("/invoices").
			POST("", h.Invoices.Create).
			GET("", h.Invoices.List).
			GET("/:id", h.Invoices.Get).
			PUT("/:id", h.Invoices.Update).
			DELETE("/:id", h.Invoices.Delete).
			POST("/:id/confirm", h.Invoices.Confirm).
			POST("/:id/unconfirm", h.Invoices.Unconfirm).
			POST("/:id/cancel", h.Invoices.Cancel).
			GET("/:id/activities", h.Invoices.ListActivities)
		invoices.Nest("/:id/payments").
			GET("", h.Invoices.ListPayments).
			POST("", h.Invoices.AddPayment).
			DELETE("/:paymentId", h.Invoices.DeletePayment)
		r.Register(invoices)
	}

	if h.Payments != nil {
		r.Register(NewResourceGroup("/payments").
			POST("", h.Payments.Create).
			GET("", h.Payments.ListByCustomer).
			DELETE("/:id", h.Payments.Delete))
	}

	if h.Ledger != nil {
		r.Register(NewResourceGroup("/customers").
			GET("/:id/balance", h.Ledger.GetBalance))
		r.Register(NewResourceGroup("/products").
			GET("/:id/stock", h.Ledger.GetStock).
			PUT("/:id/stock", h.Ledger.SetStock))
	}
}
