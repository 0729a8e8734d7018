package main

import (
	"log"

	"brilliox/leadhunter-backend/internal/api"
	"brilliox/leadhunter-backend/internal/api/controllers"
	"brilliox/leadhunter-backend/internal/auth"
	"brilliox/leadhunter-backend/internal/config"
	"brilliox/leadhunter-backend/internal/handlers"
	"brilliox/leadhunter-backend/internal/model/provider"
	"brilliox/leadhunter-backend/internal/services"

	"github.com/joho/godotenv"

	_ "brilliox/leadhunter-backend/docs" // Swagger generated docs
)

// @title Lead Hunter CRM API
// @version 1.0
// @description REST API for hunting Egyptian real-estate buyer leads from public search results and managing them through a WhatsApp-first CRM.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@brilliox.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token issued by /auth/login

// @schemes http https
func main() {
	// Load .env if present; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded configuration from .env")
	}

	cfg := config.Load()

	// Validate required configuration
	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		log.Fatal("SUPABASE_URL and SUPABASE_SECRET_KEY environment variables are required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	supabaseHandler, err := handlers.NewSupabaseHandler(cfg.SupabaseURL, cfg.SupabaseKey)
	if err != nil {
		log.Fatalf("Failed to initialize SupabaseHandler: %v", err)
	}
	log.Printf("SupabaseHandler initialized - database access enabled")

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}

	usageTracker := handlers.NewUsageTrackerHandler(supabaseHandler)
	log.Printf("UsageTrackerHandler initialized - LLM usage tracking enabled")

	// Search stack: key-rotating rate limiter, provider handler, hunt
	// processor. Missing keys disable hunting but leave the CRM usable.
	var huntProcessor *services.HuntProcessor
	searchController := controllers.NewSearchController(nil)
	if len(cfg.SerpAPIKeys) > 0 {
		limiter, err := services.NewRateLimiter(cfg.SerpAPIKeys)
		if err != nil {
			log.Fatalf("Failed to initialize rate limiter: %v", err)
		}
		searchHandler := handlers.NewSerpSearchHandler(limiter)
		huntProcessor = services.NewHuntProcessor(supabaseHandler, searchHandler)
		searchController = controllers.NewSearchController(searchHandler)
		log.Printf("SerpSearchHandler initialized - lead hunting enabled (%d keys)", len(cfg.SerpAPIKeys))
	} else {
		log.Printf("SERPAPI_KEYS not set - lead hunting disabled")
	}

	// WhatsApp outbound messaging + webhook verification
	var whatsapp *handlers.WhatsAppHandler
	if cfg.WhatsAppAPIKey != "" && cfg.WhatsAppPhoneNumberID != "" {
		whatsapp, err = handlers.NewWhatsAppHandler(cfg.WhatsAppAPIKey, cfg.WhatsAppPhoneNumberID, cfg.WhatsAppVerifyToken)
		if err != nil {
			log.Printf("Warning: Failed to initialize WhatsAppHandler: %v", err)
			log.Printf("Continuing without WhatsApp messaging")
			whatsapp = nil
		} else {
			log.Printf("WhatsAppHandler initialized - messaging enabled")
		}
	} else {
		log.Printf("WHATSAPP_API_KEY or WHATSAPP_PHONE_NUMBER_ID not set - messaging disabled")
	}

	backend := provider.DetectBackend(cfg.OpenRouterAPIKey != "", cfg.UseVertexAI)
	model := cfg.GeminiModel
	if backend == provider.BackendOpenRouter {
		model = cfg.OpenRouterModel
	}
	if model == "" {
		model = provider.DefaultModel(backend)
	}
	providerCfg := provider.Config{
		Backend:          backend,
		Model:            model,
		GoogleAPIKey:     cfg.GoogleAPIKey,
		GCPProject:       cfg.GCPProject,
		GCPLocation:      cfg.GCPLocation,
		OpenRouterAPIKey: cfg.OpenRouterAPIKey,
	}
	llmConfigured := cfg.GoogleAPIKey != "" || cfg.UseVertexAI || cfg.OpenRouterAPIKey != ""

	// Conversational sales agent
	var conversation *handlers.ConversationHandler
	if llmConfigured {
		conversation, err = handlers.NewConversationHandler(handlers.ConversationConfig{Provider: providerCfg})
		if err != nil {
			log.Printf("Warning: Failed to initialize ConversationHandler: %v", err)
			log.Printf("Continuing without the conversational agent")
			conversation = nil
		} else {
			conversation.SetUsageTracker(usageTracker)
			log.Printf("ConversationHandler initialized - conversational agent enabled (backend: %s, model: %s)",
				backend, model)
		}
	} else {
		log.Printf("No LLM backend configured - conversational agent disabled")
	}

	// The CRM tolerates missing integrations; wire only what came up.
	var msgr services.Messenger
	if whatsapp != nil {
		msgr = whatsapp
	}
	var agent services.SalesAgent
	if conversation != nil {
		agent = conversation
	}
	crm := services.NewCRMService(supabaseHandler, msgr, agent)

	// Admin command adapter and marketing chat share the provider config
	chatController := controllers.NewChatController(nil, nil)
	if llmConfigured {
		var chatAgent *handlers.MarketingChatHandler
		chatAgent, err = handlers.NewMarketingChatHandler(handlers.MarketingChatConfig{Provider: providerCfg})
		if err != nil {
			log.Printf("Warning: Failed to initialize MarketingChatHandler: %v", err)
			chatAgent = nil
		} else {
			chatAgent.SetUsageTracker(usageTracker)
			log.Printf("MarketingChatHandler initialized - marketing chat enabled")
		}

		var commandMapper *handlers.AdminCommandHandler
		commandMapper, err = handlers.NewAdminCommandHandler(handlers.AdminCommandConfig{Provider: providerCfg})
		if err != nil {
			log.Printf("Warning: Failed to initialize AdminCommandHandler: %v", err)
			commandMapper = nil
		} else {
			commandMapper.SetUsageTracker(usageTracker)
			log.Printf("AdminCommandHandler initialized - admin commands enabled")
		}

		switch {
		case chatAgent != nil && commandMapper != nil:
			chatController = controllers.NewChatController(chatAgent, commandMapper)
		case chatAgent != nil:
			chatController = controllers.NewChatController(chatAgent, nil)
		case commandMapper != nil:
			chatController = controllers.NewChatController(nil, commandMapper)
		}
	}

	webhookController := controllers.NewWebhookController(nil, crm)
	if whatsapp != nil {
		webhookController = controllers.NewWebhookController(whatsapp, crm)
	}

	huntController := controllers.NewHuntController(supabaseHandler, nil)
	if huntProcessor != nil {
		huntController = controllers.NewHuntController(supabaseHandler, huntProcessor)
	}

	router := api.NewRouter(tokens, api.Controllers{
		Auth:    controllers.NewAuthController(supabaseHandler, tokens),
		Leads:   controllers.NewLeadController(crm),
		Hunts:   huntController,
		Search:  searchController,
		Chat:    chatController,
		Webhook: webhookController,
	})

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	log.Printf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
