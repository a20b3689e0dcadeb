// main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"storefront/cart"
	"storefront/checkout"
	"storefront/controllers"
	"storefront/payment"
	"storefront/routes"
	"storefront/utils"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}

	// Set the JWT secret key
	utils.JwtKey = []byte(os.Getenv("JWT_SECRET"))

	// Initialize EmailService
	emailService := utils.NewEmailService()

	// Connect to MongoDB
	client := utils.ConnectDB()
	defer func() {
		if err := client.Disconnect(context.TODO()); err != nil {
			log.Fatal(err)
		}
	}()

	// Checkout orchestrator wired to Stripe and the orders collection
	checkoutService := &checkout.Service{
		Orders:   checkout.NewMongoOrderStore(client),
		Gateway:  payment.NewStripeGateway(os.Getenv("STRIPE_SECRET_KEY")),
		Pricer:   checkout.NewMongoPricer(client),
		Notifier: controllers.NewEmailNotifier(client, emailService),
		Currency: "usd",
		Reprice:  os.Getenv("CHECKOUT_REPRICE") == "true",
	}

	cartStore := cart.NewStore()

	// Initialize controllers
	userController := controllers.NewUserController(client)
	productController := controllers.NewProductController(client)
	cartController := controllers.NewCartController(cartStore)
	favoriteController := controllers.NewFavoriteController(client)
	checkoutController := controllers.NewCheckoutController(checkoutService)
	orderController := controllers.NewOrderController(client, os.Getenv("ORDER_STATUS_STRICT") == "true")

	// Set up the router
	router := mux.NewRouter()
	routes.RegisterRoutes(router, userController, productController, cartController,
		favoriteController, checkoutController, orderController)

	// CORS for the storefront client
	origins := []string{"http://localhost:5173"}
	if env := os.Getenv("CLIENT_ORIGIN"); env != "" {
		origins = strings.Split(env, ",")
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)

	// Start the server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	fmt.Printf("Server is running on port %s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, handlers.LoggingHandler(os.Stdout, cors(router))))
}
