package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workshop-backend/internal/admin"
	"workshop-backend/internal/apperr"
	"workshop-backend/internal/audit"
	"workshop-backend/internal/auth"
	"workshop-backend/internal/catalog"
	"workshop-backend/internal/config"
	"workshop-backend/internal/database"
	"workshop-backend/internal/fleet"
	"workshop-backend/internal/inventory"
	"workshop-backend/internal/logger"
	"workshop-backend/internal/orders"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is configured from cfg, so this one goes to stderr
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	log, err := logger.Init(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migrate database", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: apperr.Handler,
		BodyLimit:    10 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Origins(),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(requestTimeout(cfg.RequestTimeout))
	app.Use(logger.RequestLogger(auth.ActorID))

	registerRoutes(app, cfg, db)

	go func() {
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.Fatal("listen", zap.Error(err))
		}
	}()
	log.Info("server started", zap.String("port", cfg.HTTPPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// requestTimeout bounds the context every service call runs under.
func requestTimeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)

		err := c.Next()
		if err == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			zap.L().Warn("request ran past its deadline", zap.String("path", c.Path()))
		}
		return err
	}
}

func registerRoutes(app *fiber.App, cfg *config.Config, db *gorm.DB) {
	policy := auth.DefaultPolicy
	allow := func(op auth.Operation) fiber.Handler { return auth.Require(policy, op) }

	authSvc := auth.NewService(db, cfg.JWTSecret, cfg.JWTTTL)
	refresher := catalog.NewSQLRefresher(db)
	sync := catalog.NewSynchronizer(db, refresher)
	categories := catalog.NewCategoryService(db, refresher)
	products := inventory.NewProductService(db, sync)
	supplierOrders := inventory.NewSupplierOrderService(db)
	offers := orders.NewOfferService(db)
	orderSvc := orders.NewOrderService(db, cfg.VATMultiplier)
	items := orders.NewItemService(db, cfg.VATMultiplier, orderSvc)
	vehicles := fleet.NewVehicleService(db)
	users := admin.NewUserService(db)

	api := app.Group("/api")

	// public
	api.Post("/auth/login", auth.LoginHandler(authSvc))
	api.Post("/auth/register", auth.RegisterHandler(authSvc))

	p := api.Group("", auth.Authenticate(auth.NewVerifier(cfg.JWTSecret, auth.NewUsers(db))))

	p.Get("/auth/me", allow(auth.OpMe), auth.MeHandler(policy))

	// users and reference tables
	p.Get("/users", allow(auth.OpUsersList), admin.ListUsersHandler(users))
	p.Get("/users/:id", allow(auth.OpUsersGet), admin.GetUserHandler(users))
	p.Post("/users", allow(auth.OpUsersCreate), admin.CreateUserHandler(users))
	p.Put("/users/:id", allow(auth.OpUsersUpdate), admin.UpdateUserHandler(users))
	p.Get("/roles", allow(auth.OpRolesList), admin.ListRolesHandler(db))
	p.Get("/statuses", allow(auth.OpStatusesList), admin.ListStatusesHandler(db))
	p.Get("/fuel-types", allow(auth.OpFuelTypesList), admin.ListFuelTypesHandler(db))

	// vehicles
	p.Get("/vehicles", allow(auth.OpVehiclesList), fleet.ListVehiclesHandler(vehicles))
	p.Get("/vehicles/:id", allow(auth.OpVehiclesGet), fleet.GetVehicleHandler(vehicles))
	p.Post("/vehicles", allow(auth.OpVehiclesCreate), fleet.CreateVehicleHandler(vehicles))
	p.Put("/vehicles/:id", allow(auth.OpVehiclesUpdate), fleet.UpdateVehicleHandler(vehicles))
	p.Delete("/vehicles/:id", allow(auth.OpVehiclesDelete), fleet.DeleteVehicleHandler(vehicles))

	// offers
	p.Get("/offers", allow(auth.OpOffersList), orders.ListOffersHandler(offers))
	p.Get("/offers/:id", allow(auth.OpOffersGet), orders.GetOfferHandler(offers))
	p.Post("/offers", allow(auth.OpOffersCreate), orders.CreateOfferHandler(offers))
	p.Put("/offers/:id", allow(auth.OpOffersUpdate), orders.UpdateOfferHandler(offers))
	p.Put("/offers/:id/status", allow(auth.OpOffersSetStatus), orders.SetOfferStatusHandler(offers))
	p.Delete("/offers/:id", allow(auth.OpOffersDelete), orders.DeleteOfferHandler(offers))
	p.Post("/offers/:id/order", allow(auth.OpOrdersCreate), orders.CreateOrderFromOfferHandler(orderSvc))

	// orders and their items
	p.Get("/orders", allow(auth.OpOrdersList), orders.ListOrdersHandler(orderSvc))
	p.Get("/orders/:id", allow(auth.OpOrdersGet), orders.GetOrderHandler(orderSvc))
	p.Post("/orders", allow(auth.OpOrdersCreate), orders.CreateOrderHandler(orderSvc))
	p.Put("/orders/:id", allow(auth.OpOrdersUpdate), orders.UpdateOrderHandler(orderSvc))
	p.Put("/orders/:id/status", allow(auth.OpOrdersSetStatus), orders.SetOrderStatusHandler(orderSvc))
	p.Delete("/orders/:id", allow(auth.OpOrdersDelete), orders.DeleteOrderHandler(orderSvc))
	p.Post("/orders/:id/recompute", allow(auth.OpOrdersRecompute), orders.RecomputeOrderHandler(orderSvc))
	p.Get("/orders/:id/items", allow(auth.OpOrderItemsList), orders.ListItemsHandler(items))
	p.Post("/orders/:id/items", allow(auth.OpOrderItemsCreate), orders.CreateItemHandler(items))
	p.Put("/order-items/:id", allow(auth.OpOrderItemsUpdate), orders.UpdateItemHandler(items))
	p.Delete("/order-items/:id", allow(auth.OpOrderItemsDelete), orders.DeleteItemHandler(items))

	// products; static paths before /:sku
	p.Get("/products", allow(auth.OpProductsList), inventory.ListProductsHandler(products))
	p.Get("/products/import/template", allow(auth.OpProductsImport), inventory.ImportTemplateHandler())
	p.Post("/products/import", allow(auth.OpProductsImport), inventory.ImportProductsHandler(products))
	p.Get("/products/:sku", allow(auth.OpProductsGet), inventory.GetProductHandler(products))
	p.Post("/products", allow(auth.OpProductsCreate), inventory.CreateProductHandler(products))
	p.Put("/products/:sku", allow(auth.OpProductsUpdate), inventory.UpdateProductHandler(products))
	p.Delete("/products/:sku", allow(auth.OpProductsDelete), inventory.DeleteProductHandler(products))
	p.Get("/products/:sku/categories", allow(auth.OpCategoriesTree), catalog.ProductTreeHandler(categories))
	p.Put("/products/:sku/categories", allow(auth.OpProductsAssign), catalog.SetAssignmentsHandler(sync))
	p.Post("/products/:sku/categories/:categoryId", allow(auth.OpProductsAssign), catalog.AddAssignmentHandler(sync))
	p.Delete("/products/:sku/categories/:categoryId", allow(auth.OpProductsAssign), catalog.RemoveAssignmentHandler(sync))

	// categories; /tree before /:id
	p.Get("/product-categories", allow(auth.OpCategoriesList), catalog.ListCategoriesHandler(categories))
	p.Get("/product-categories/tree", allow(auth.OpCategoriesTree), catalog.TreeHandler(categories))
	p.Get("/product-categories/:id", allow(auth.OpCategoriesList), catalog.GetCategoryHandler(categories))
	p.Post("/product-categories", allow(auth.OpCategoriesCreate), catalog.CreateCategoryHandler(categories))
	p.Put("/product-categories/:id", allow(auth.OpCategoriesUpdate), catalog.UpdateCategoryHandler(categories))
	p.Delete("/product-categories/:id", allow(auth.OpCategoriesDelete), catalog.DeleteCategoryHandler(categories))

	// supplier orders
	p.Get("/supplier-orders", allow(auth.OpSupplierOrdersList), inventory.ListSupplierOrdersHandler(supplierOrders))
	p.Get("/supplier-orders/:id", allow(auth.OpSupplierOrdersGet), inventory.GetSupplierOrderHandler(supplierOrders))
	p.Post("/supplier-orders", allow(auth.OpSupplierOrdersCreate), inventory.CreateSupplierOrderHandler(supplierOrders))
	p.Put("/supplier-orders/:id", allow(auth.OpSupplierOrdersUpdate), inventory.UpdateSupplierOrderHandler(supplierOrders))
	p.Delete("/supplier-orders/:id", allow(auth.OpSupplierOrdersDelete), inventory.DeleteSupplierOrderHandler(supplierOrders))

	p.Get("/audit-logs", allow(auth.OpAuditLogsList), audit.ListHandler(db))
}
