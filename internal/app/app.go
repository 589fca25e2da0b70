package app

import (
    "context"
    "errors"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"

    "github.com/go-playground/validator/v10"
    "github.com/goccy/go-json"
    "github.com/prometheus/client_golang/prometheus/promhttp"
    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/yemyoaung/managing-vehicle-tracking-common"
    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/config"
    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/gpsvendor"
    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/handler"
    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/metrics"
    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/repositories"
    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/services"
    "github.com/yemyoaung/managing-vehicle-tracking-models"
    "go.mongodb.org/mongo-driver/mongo"
    "go.mongodb.org/mongo-driver/mongo/options"
)

var (
    ErrConfigMissing = errors.New("config is missing")
)

type App struct {
    validator  *validator.Validate
    cfg        *config.EnvConfig
    vendorCfg  *config.VendorEnv
    db         *mongo.Client
    rabbitConn *common.RabbitConnection
    shutdown   chan error
}

// NewApp creates a new App instance
func NewApp() *App {
    exit := make(chan os.Signal, 1)
    shutdown := make(chan error, 1)

    signal.Notify(exit, os.Interrupt, syscall.SIGTERM) // listen for termination signals

    go func() {
        defer close(exit)
        <-exit
        shutdown <- nil // shutdown
    }()

    return &App{shutdown: shutdown}
}

// SetValidator sets the validator for the application
func (a *App) SetValidator(validator *validator.Validate) *App {
    a.validator = validator
    return a
}

// SetConfig sets the configuration for the application
func (a *App) SetConfig(cfg *config.EnvConfig) *App {
    a.cfg = cfg
    return a
}

// SetVendorConfig sets the GPS vendor endpoint and credentials
func (a *App) SetVendorConfig(cfg *config.VendorEnv) *App {
    a.vendorCfg = cfg
    return a
}

// HandleLocationMessage forwards one queued location batch to the vendor and acks or nacks it.
// Failed batches are dropped, never requeued.
func HandleLocationMessage(ctx context.Context, vendorService services.VendorService, msg amqp.Delivery) {
    ack := func() {
        metrics.LocationMessagesTotal.WithLabelValues("ack").Inc()
        if err := msg.Ack(false); err != nil {
            log.Println("Failed to ack message: ", err)
        }
    }
    nack := func() {
        metrics.LocationMessagesTotal.WithLabelValues("nack").Inc()
        if err := msg.Nack(false, false); err != nil {
            log.Println("Failed to nack message: ", err)
        }
    }

    var batch services.LocationBatchRequest
    if err := json.Unmarshal(msg.Body, &batch); err != nil {
        log.Printf("Failed to unmarshal message %s: %v", msg.MessageId, err)
        nack()
        return
    }

    resp, err := vendorService.ReportLocations(ctx, batch.Locations)
    if err != nil {
        log.Printf("Failed to report locations of message %s: %v", msg.MessageId, err)
        nack()
        return
    }
    if !resp.Success {
        log.Printf("Vendor rejected locations of message %s: code=%q %s", msg.MessageId, resp.Code, resp.Message)
        nack()
        return
    }
    ack()
}

// queueDeclarer is the part of *amqp.Channel needed to declare the location queue
type queueDeclarer interface {
    QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
}

// declareLocationQueue declares the durable location queue. It must run before the first
// publish, the default exchange drops messages for undeclared queues.
func declareLocationQueue(channel queueDeclarer, queue string) error {
    _, err := channel.QueueDeclare(
        queue,
        true,
        false,
        false,
        false,
        nil,
    )
    return err
}

// Consume listens for location batches from RabbitMQ and relays them to the vendor.
// The location queue must already be declared.
func (a *App) Consume(
    ctx context.Context,
    vendorService services.VendorService,
    channel *amqp.Channel,
) {
    // one vendor call at a time
    if err := channel.Qos(1, 0, false); err != nil {
        a.shutdown <- err
        return
    }

    locationMessages, err := channel.Consume(
        a.cfg.LocationQueue,
        "",
        false,
        false,
        false,
        false,
        nil,
    )
    if err != nil {
        a.shutdown <- err
        return
    }

    go func(locationMessages <-chan amqp.Delivery) {
        for msg := range locationMessages {
            HandleLocationMessage(ctx, vendorService, msg)
        }
    }(locationMessages)
}

// Run starts the app, connects to MongoDB, RabbitMQ, starts the HTTP server and relays queued locations
func (a *App) Run(ctx context.Context) {
    if a.cfg == nil || a.vendorCfg == nil {
        a.shutdown <- ErrConfigMissing
        return
    }

    vendorCfg, err := a.vendorCfg.VendorConfig()
    if err != nil {
        a.shutdown <- err
        return
    }
    vendorClient, err := gpsvendor.New(vendorCfg)
    if err != nil {
        a.shutdown <- err
        return
    }

    metrics.Register()

    // Connect to MongoDB
    a.db, err = mongo.Connect(ctx, options.Client().ApplyURI(a.cfg.DatabaseURL))
    if err != nil {
        a.shutdown <- err
        return
    }

    // Initialize the device repository with the MongoDB connection
    deviceRepo, err := repositories.NewMongoDeviceRepository(ctx, a.db.Database("gps_vendor"))
    if err != nil {
        a.shutdown <- err
        return
    }

    // Set up RabbitMQ connection
    a.rabbitConn = common.NewRabbitConnection(a.cfg.RabbitmqUrl)

    channel, err := a.rabbitConn.Channel()
    if err != nil {
        a.shutdown <- err
        return
    }

    if err := declareLocationQueue(channel, a.cfg.LocationQueue); err != nil {
        a.shutdown <- err
        return
    }

    locationRepo := repositories.NewRabbitMqLocationRepository(channel, a.cfg.LocationQueue)

    vendorService := services.NewGpsVendorService(vendorClient, deviceRepo, locationRepo)
    vendorHandler := handler.NewV1VendorHandler(vendorService, a.validator)

    go a.Consume(ctx, vendorService, channel)

    // Set up the HTTP server
    server := http.NewServeMux()

    // Set up the API routes
    v1Router := http.NewServeMux()                                           // API version 1 router
    v1Router.HandleFunc("/api/v1/devices", vendorHandler.RegisterDevice)     // Device registration
    v1Router.HandleFunc("/api/v1/devices/", vendorHandler.FindDeviceByBoxID) // Find device by box id
    v1Router.HandleFunc("/api/v1/locations", vendorHandler.PublishLocations) // Queue locations for the vendor

    // metrics are scraped without the auth chain
    server.Handle("/metrics", promhttp.Handler())

    // Apply middlewares and handle requests
    // - CorsMiddleware: Adds CORS headers to the response
    // - LoggingMiddleware: Logs each incoming request for debugging and monitoring
    // - AuthorizationMiddleware: Authorizes the request using the auth service
    // - VerifySignatureMiddleware: Verifies the request's signature (ensuring it's from a trusted source)
    server.Handle(
        "/",
        common.CorsMiddleware(nil)(
            common.LoggingMiddleware(log.Default())(
                common.AuthorizationMiddleware[models.AuthUser](a.cfg.AuthSvc, a.cfg.SignatureKey)(
                    common.VerifySignatureMiddleware(a.cfg.SignatureKey)(
                        v1Router,
                    ),
                ),
            ),
        ),
    )

    log.Printf("GPS vendor service (%s) started on Port: %s", vendorClient.Dialect(), a.cfg.Port)

    // Start the HTTP server in a goroutine
    go func() {
        err := http.ListenAndServe(a.cfg.Host+":"+a.cfg.Port, server)
        if !errors.Is(err, http.ErrServerClosed) {
            a.shutdown <- err
        }
    }()
}

// Shutdown waits for a termination signal or a fatal error, then releases the connections
func (a *App) Shutdown(ctx context.Context) error {
    defer close(a.shutdown)

    err := <-a.shutdown

    // Close RabbitMQ connection
    if a.rabbitConn != nil {
        if err := a.rabbitConn.Close(); err != nil {
            log.Println("Failed to close RabbitMQ connection", err)
        }
    }

    // Disconnect from MongoDB client
    if a.db != nil {
        if err := a.db.Disconnect(ctx); err != nil {
            log.Println("Failed to disconnect from database", err)
        }
    }

    return err
}
