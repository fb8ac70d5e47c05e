package main

import (
	"context"
	"embed"
	"encoding/gob"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adampresley/adamgokit/awsconfig"
	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/mux"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/adamgokit/retrier"
	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/adamgokit/sessions"
	"github.com/adampresley/galleria/cmd/website/internal/configuration"
	"github.com/adampresley/galleria/cmd/website/internal/galleries"
	"github.com/adampresley/galleria/cmd/website/internal/home"
	"github.com/adampresley/galleria/cmd/website/internal/thumbnails"
	"github.com/adampresley/galleria/cmd/website/internal/uploads"
	"github.com/adampresley/galleria/cmd/website/internal/useraccess"
	"github.com/adampresley/galleria/pkg/editor"
	"github.com/adampresley/galleria/pkg/models"
	"github.com/adampresley/galleria/pkg/services"
	_ "github.com/glebarez/sqlite"
	"github.com/rfberaldo/sqlz"
	"github.com/rfberaldo/sqlz/binds"
)

var (
	Version string = "development"
	appName string = "galleria"

	//go:embed app
	appFS embed.FS

	//go:embed sql-migrations
	sqlMigrationsFs embed.FS

	config configuration.Config

	/* Services */
	db                      *sqlz.DB
	galleryService          services.GalleryServicer
	imageService            services.ImageServicer
	renderer                rendering.TemplateRenderer
	sessionManager          *editor.Manager
	sessionService          sessions.Session[*models.User]
	thumbnailCreatorService thumbnails.ThumbnailCreator
	userService             services.UserServicer
	zipService              services.GalleryZipServicer

	/* Controllers */
	galleryController    galleries.GalleryController
	homeController       home.HomeHandlers
	uploadController     uploads.UploadController
	userAccessController useraccess.UserAccessController
)

func main() {
	var (
		err error
	)

	config = configuration.LoadConfig()
	setupLogger(&config, Version)

	slog.Info("configuration loaded",
		slog.String("app", appName),
		slog.String("version", Version),
		slog.String("loglevel", config.LogLevel),
		slog.String("host", config.Host),
		slog.String("awsEndpointUrl", config.AwsEndpointUrl),
		slog.String("awsRegion", config.AwsRegion),
	)

	slog.Debug("setting up...")

	shutdownCtx, cancel := context.WithCancel(context.Background())

	/*
	 * Setup services
	 */
	binds.Register("sqlite", binds.BindByDriver("sqlite3"))
	if db, err = sqlz.Connect("sqlite", config.DSN); err != nil {
		panic(err)
	}

	migrateDatabase()
	gob.Register(&models.User{})

	cookieStore := sessions.NewCookieStore(config.CookieSecret)
	sessionService = sessions.NewSessionWrapper[*models.User](cookieStore, "galleriausers", "user")

	awsConfig := &awsconfig.Config{
		Endpoint:        config.AwsEndpointUrl,
		Region:          config.AwsRegion,
		AccessKeyID:     config.AwsAccessKeyId,
		SecretAccessKey: config.AwsSecretAccessKey,
	}

	retrier.Retry(func() error {
		if err = awsConfig.Load(); err != nil {
			slog.Error("failed to load AWS config. trying again", "error", err)
			return err
		}

		return nil
	})

	if err != nil {
		panic(err)
	}

	s3Client, err := s3.NewClient(awsConfig)

	if err != nil {
		panic(err)
	}

	renderer, err = rendering.NewGoTemplateRenderer(rendering.GoTemplateRendererConfig{
		TemplateDir:       "app",
		TemplateExtension: ".html",
		TemplateFS:        appFS,
		PagesDir:          "pages",
	})

	if err != nil {
		panic(err)
	}

	galleryService = services.NewGalleryService(services.GalleryServiceConfig{
		DB:          db,
		S3Client:    s3Client,
		Bucket:      config.AwsBucket,
		PhotoFolder: config.PhotoFolder,
	})

	imageService = services.NewImageService(services.ImageServiceConfig{
		DB:          db,
		S3Client:    s3Client,
		Bucket:      config.AwsBucket,
		PhotoFolder: config.PhotoFolder,
	})

	userService = services.NewUserService(services.UserServiceConfig{
		DB: db,
	})

	zipService = services.NewGalleryZipService(services.GalleryZipServiceConfig{
		BaseDownloadURL: config.DownloadBaseURL,
		Bucket:          config.AwsBucket,
		EmailApiKey:     config.EmailApiKey,
		ExpirationDays:  config.DownloadExpirationDays,
		FromEmail:       "noreply@galleria.app",
		FromName:        "Galleria",
		GalleryService:  galleryService,
		PhotoFolder:     config.PhotoFolder,
		S3Client:        s3Client,
		UserService:     userService,
	})

	thumbnailCreatorService = thumbnails.NewThumbnailCreatorService(thumbnails.ThumbnailCreatorConfig{
		AwsBucket:           config.AwsBucket,
		AwsRegion:           config.AwsRegion,
		GalleryService:      galleryService,
		ImageService:        imageService,
		MaxThumbnailWorkers: config.MaxThumbnailWorkers,
		PhotoFolder:         config.PhotoFolder,
		S3Client:            s3Client,
		ShutdownCtx:         shutdownCtx,
		UserService:         userService,
	})

	sessionManager = editor.NewManager(editor.ManagerConfig{
		SessionTTL: time.Duration(config.SessionTTLMinutes) * time.Minute,
	})

	/*
	 * Setup controllers
	 */
	galleryController = galleries.NewGalleryController(galleries.GalleryControllerConfig{
		Bucket:         config.AwsBucket,
		GalleryService: galleryService,
		ImageService:   imageService,
		PhotoFolder:    config.PhotoFolder,
		Renderer:       renderer,
		S3Client:       s3Client,
		SessionManager: sessionManager,
		SessionService: sessionService,
		ZipService:     zipService,
	})

	homeController = home.NewHomeController(home.HomeControllerConfig{
		Config:         &config,
		GalleryService: galleryService,
		Renderer:       renderer,
	})

	uploadController = uploads.NewUploadController(uploads.UploadControllerConfig{
		Bucket:           config.AwsBucket,
		ImageService:     imageService,
		PhotoFolder:      config.PhotoFolder,
		Renderer:         renderer,
		S3Client:         s3Client,
		ThumbnailCreator: thumbnailCreatorService,
	})

	userAccessController = useraccess.NewUserAccessController(useraccess.UserAccessControllerConfig{
		Renderer:       renderer,
		SessionService: sessionService,
		UserService:    userService,
	})

	/*
	 * Setup router and http server
	 */
	slog.Debug("setting up routes...")

	userAccessMiddleware := newUserAccessMiddleware(
		sessionService,
		[]string{
			"/static",
			"/login",
			"/public",
			"/heartbeat",
		},
	)

	protected := []mux.MiddlewareFunc{userAccessMiddleware}

	routes := []mux.Route{
		{Path: "GET /heartbeat", HandlerFunc: heartbeat},
		{Path: "GET /", HandlerFunc: homeController.HomePage},
		{Path: "GET /public/{id}", HandlerFunc: homeController.PublicGalleryPage},
		{Path: "GET /login", HandlerFunc: userAccessController.LoginPage},
		{Path: "POST /login", HandlerFunc: userAccessController.LoginAction},
		{Path: "GET /logout", HandlerFunc: userAccessController.LogoutAction},
		{Path: "GET /galleries", HandlerFunc: galleryController.GalleryListPage, Middlewares: protected},
		{Path: "GET /galleries/new", HandlerFunc: galleryController.NewGalleryPage, Middlewares: protected},
		{Path: "POST /galleries/new", HandlerFunc: galleryController.CreateGalleryAction, Middlewares: protected},
		{Path: "GET /galleries/{id}", HandlerFunc: galleryController.ViewGalleryPage, Middlewares: protected},
		{Path: "GET /galleries/{id}/edit", HandlerFunc: galleryController.EditGalleryPage, Middlewares: protected},
		{Path: "POST /galleries/{id}/delete", HandlerFunc: galleryController.DeleteGalleryAction, Middlewares: protected},
		{Path: "GET /galleries/{id}/download-all", HandlerFunc: galleryController.DownloadAllImagesInGallery, Middlewares: protected},
		{Path: "GET /galleries/downloads/{filename}", HandlerFunc: galleryController.DownloadZip, Middlewares: protected},
		{Path: "GET /library", HandlerFunc: uploadController.LibraryPage, Middlewares: protected},
		{Path: "POST /library/upload", HandlerFunc: uploadController.UploadAction, Middlewares: protected},
		{Path: "POST /library/{id}/delete", HandlerFunc: uploadController.DeleteImageAction, Middlewares: protected},
		{Path: "GET /api/editor/{token}/state", HandlerFunc: galleryController.EditorState, Middlewares: protected},
		{Path: "POST /api/editor/{token}/images", HandlerFunc: galleryController.EditorAddImages, Middlewares: protected},
		{Path: "POST /api/editor/{token}/drag-start", HandlerFunc: galleryController.EditorDragStart, Middlewares: protected},
		{Path: "POST /api/editor/{token}/drag-end", HandlerFunc: galleryController.EditorDragEnd, Middlewares: protected},
		{Path: "POST /api/editor/{token}/drag-cancel", HandlerFunc: galleryController.EditorDragCancel, Middlewares: protected},
		{Path: "POST /api/editor/{token}/remove-request", HandlerFunc: galleryController.EditorRemoveRequest, Middlewares: protected},
		{Path: "POST /api/editor/{token}/remove-confirm", HandlerFunc: galleryController.EditorRemoveConfirm, Middlewares: protected},
		{Path: "POST /api/editor/{token}/remove-cancel", HandlerFunc: galleryController.EditorRemoveCancel, Middlewares: protected},
		{Path: "PUT /api/editor/{token}/description", HandlerFunc: galleryController.EditorSetDescription, Middlewares: protected},
		{Path: "POST /api/editor/{token}/save-order", HandlerFunc: galleryController.EditorSaveOrder, Middlewares: protected},
		{Path: "POST /api/editor/{token}/save", HandlerFunc: galleryController.EditorSave, Middlewares: protected},
		{Path: "GET /api/editor/{token}/notification", HandlerFunc: galleryController.EditorNotification, Middlewares: protected},
	}

	routerConfig := mux.RouterConfig{
		Address:              config.Host,
		Debug:                Version == "development",
		ServeStaticContent:   true,
		StaticContentRootDir: "app",
		StaticContentPrefix:  "/static/",
		StaticFS:             appFS,
		HttpWriteTimeout:     60,
	}

	m := mux.SetupRouter(routerConfig, routes)
	httpServer, quit := mux.SetupServer(routerConfig, m)

	/*
	 * Start the zip cleanup job
	 */
	zipService.StartCleanupRoutine(24 * time.Hour)
	defer zipService.StopCleanupRoutine()

	/*
	 * Start the editing session sweeper
	 */
	sessionManager.StartSweeping(5 * time.Minute)
	defer sessionManager.StopSweeping()

	/*
	 * Start the thumbnail creator job
	 */
	setupThumbnailCreator(quit)

	/*
	 * Wait for graceful shutdown
	 */
	slog.Info("server started")

	<-quit

	cancel()
	mux.Shutdown(httpServer)
	slog.Info("server stopped")
}

func heartbeat(w http.ResponseWriter, r *http.Request) {
	httphelpers.TextOK(w, "OK")
}

func migrateDatabase() {
	var (
		err  error
		dirs []fs.DirEntry
		b    []byte
	)

	if dirs, err = sqlMigrationsFs.ReadDir("sql-migrations"); err != nil {
		panic(err)
	}

	for _, d := range dirs {
		if d.IsDir() {
			continue
		}

		if strings.HasPrefix(d.Name(), "commit") {
			if b, err = fs.ReadFile(sqlMigrationsFs, filepath.Join("sql-migrations", d.Name())); err != nil {
				panic(err)
			}

			if err = runSqlScript(b); err != nil {
				if !isIgnorableError(err) {
					panic(err)
				}
			}
		}
	}
}

func runSqlScript(script []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	_, err := db.Exec(ctx, string(script))
	return err
}

func isIgnorableError(err error) bool {
	if strings.Contains(err.Error(), "duplicate column") {
		return true
	}

	return false
}

func setupThumbnailCreator(quit chan os.Signal) {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		running := true

		runner := func() {
			defer func() {
				running = false
			}()

			thumbnailCreatorService.CreateThumbnails()
			slog.Info("thumbnail creator finished.")
		}

		runner()

		for {
			select {
			case <-quit:
				return

			case <-ticker.C:
				if running {
					slog.Info("thumbnail creator already running. skipping...")
					continue
				}

				runner()
			}
		}
	}()
}
