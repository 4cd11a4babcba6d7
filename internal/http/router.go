package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/repository"
)

type RouterDeps struct {
	Cart           *CartHandler
	Orders         *OrderHandler
	Live           *LiveHandler
	Products       *ProductHandler
	Chat           *ChatHandler
	Notifications  *NotificationHandler
	Blobs          *BlobHandler
	Users          repository.UserRepository
	RequestTimeout time.Duration
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware(deps.Users))

		// streaming routes sit outside the request timeout
		r.Group(func(r chi.Router) {
			r.Get("/shop/orders/live", deps.Live.ShopOrders)
			r.Get("/purchases/live", deps.Live.Purchases)
			r.Get("/uploads/*", deps.Blobs.Serve)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(deps.RequestTimeout))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", deps.Cart.GetCart)
				r.Post("/", deps.Cart.AddItem)
				r.Put("/{order_id}", deps.Cart.UpdateItem)
				r.Delete("/{order_id}", deps.Cart.RemoveItem)
			})

			r.Post("/checkout", deps.Orders.Checkout)

			r.Route("/purchases", func(r chi.Router) {
				r.Get("/", deps.Orders.ListPurchases)
				r.Post("/{order_id}/cancel", deps.Orders.Cancel)
				r.Post("/{order_id}/review", deps.Orders.SubmitReview)
				r.Post("/{order_id}/buy-again", deps.Orders.BuyAgain)
			})

			r.Route("/shop/orders", func(r chi.Router) {
				r.Get("/", deps.Orders.ListShopOrders)
				r.Post("/{order_id}/confirm", deps.Orders.Confirm)
				r.Post("/{order_id}/cancel", deps.Orders.Cancel)
				r.Post("/{order_id}/ship", deps.Orders.ConfirmShipped)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", deps.Products.List)
				r.Post("/", deps.Products.Create)
				r.Get("/liked", deps.Products.Liked)
				r.Get("/{product_id}", deps.Products.Get)
				r.Put("/{product_id}", deps.Products.Update)
				r.Delete("/{product_id}", deps.Products.Delete)
				r.Put("/{product_id}/stocks", deps.Products.SetStocks)
				r.Post("/{product_id}/images", deps.Products.UploadImage)
				r.Post("/{product_id}/like", deps.Products.Like)
				r.Delete("/{product_id}/like", deps.Products.Unlike)
			})

			r.Get("/categories", deps.Products.Categories)

			r.Route("/messages", func(r chi.Router) {
				r.Post("/", deps.Chat.Send)
				r.Get("/{user_id}", deps.Chat.Conversation)
				r.Post("/{user_id}/image", deps.Chat.SendImage)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", deps.Notifications.List)
				r.Put("/push-token", deps.Notifications.RegisterToken)
				r.Post("/{notification_id}/read", deps.Notifications.MarkRead)
			})
		})
	})

	return r
}
