// routes/routes.go
package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"storefront/controllers"
	"storefront/middleware"
)

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(
	router *mux.Router,
	userController *controllers.UserController,
	productController *controllers.ProductController,
	cartController *controllers.CartController,
	favoriteController *controllers.FavoriteController,
	checkoutController *controllers.CheckoutController,
	orderController *controllers.OrderController,
) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	// Public auth routes
	api.HandleFunc("/auth/register", userController.Register).Methods("POST")
	api.HandleFunc("/auth/login", userController.Login).Methods("POST")
	api.HandleFunc("/auth/admin-login", userController.AdminLogin).Methods("POST")

	profile := api.PathPrefix("/auth").Subrouter()
	profile.Use(middleware.AuthMiddleware)
	profile.HandleFunc("/profile", userController.GetProfile).Methods("GET")

	// Public catalog routes
	api.HandleFunc("/products", productController.GetProducts).Methods("GET")
	api.HandleFunc("/products/slug/{slug}", productController.GetProductBySlug).Methods("GET")

	// Admin catalog routes
	adminProducts := api.PathPrefix("/products").Subrouter()
	adminProducts.Use(middleware.AuthMiddleware)
	adminProducts.Use(middleware.AdminMiddleware)
	adminProducts.HandleFunc("", productController.CreateProduct).Methods("POST")
	adminProducts.HandleFunc("/{id}", productController.UpdateProduct).Methods("PATCH")
	adminProducts.HandleFunc("/{id}", productController.DeleteProduct).Methods("DELETE")

	// Cart routes
	cartRoutes := api.PathPrefix("/cart").Subrouter()
	cartRoutes.Use(middleware.AuthMiddleware)
	cartRoutes.HandleFunc("", cartController.GetCart).Methods("GET")
	cartRoutes.HandleFunc("", cartController.AddToCart).Methods("POST")
	cartRoutes.HandleFunc("/{key}", cartController.RemoveFromCart).Methods("DELETE")

	// Favorites routes
	favoriteRoutes := api.PathPrefix("/favorites").Subrouter()
	favoriteRoutes.Use(middleware.AuthMiddleware)
	favoriteRoutes.HandleFunc("", favoriteController.GetFavorites).Methods("GET")
	favoriteRoutes.HandleFunc("", favoriteController.AddFavorite).Methods("POST")
	favoriteRoutes.HandleFunc("/{productId}", favoriteController.RemoveFavorite).Methods("DELETE")

	// Checkout routes
	checkoutRoutes := api.PathPrefix("/checkout").Subrouter()
	checkoutRoutes.Use(middleware.AuthMiddleware)
	checkoutRoutes.HandleFunc("", checkoutController.CreateCheckout).Methods("POST")
	checkoutRoutes.HandleFunc("/confirm-payment", checkoutController.ConfirmPayment).Methods("POST")

	// Admin order routes, registered before the owner-scoped {id} route
	adminOrders := api.PathPrefix("/orders/admin").Subrouter()
	adminOrders.Use(middleware.AuthMiddleware)
	adminOrders.Use(middleware.AdminMiddleware)
	adminOrders.HandleFunc("", orderController.AdminGetOrders).Methods("GET")
	adminOrders.HandleFunc("/{id}/status", orderController.AdminUpdateStatus).Methods("PATCH")

	// Order routes
	orderRoutes := api.PathPrefix("/orders").Subrouter()
	orderRoutes.Use(middleware.AuthMiddleware)
	orderRoutes.HandleFunc("", orderController.GetOrders).Methods("GET")
	orderRoutes.HandleFunc("/{id}", orderController.GetOrder).Methods("GET")
}
