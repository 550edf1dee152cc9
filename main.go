package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mapavioleta/mapavioleta/config"
	"github.com/mapavioleta/mapavioleta/database"
	"github.com/mapavioleta/mapavioleta/logger"
	"github.com/mapavioleta/mapavioleta/web"
	"github.com/mapavioleta/mapavioleta/web/cache"
	"github.com/mapavioleta/mapavioleta/web/service"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func initLogger() {
	level, err := logger.ParseLevel(config.GetLogLevel())
	if err != nil {
		log.Fatal(err)
	}
	logger.InitLogger(level)
}

func initDB() error {
	dbConfig, err := config.GetDatabaseConfig()
	if err != nil {
		return err
	}
	return database.InitDB(dbConfig)
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())
	initLogger()
	defer logger.CloseLogger()

	if err := initDB(); err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := database.CloseDB(); err != nil {
			logger.Warning("close database err:", err)
		}
	}()

	if err := cache.InitRedis(config.GetRedisAddr()); err != nil {
		logger.Error("init redis err:", err)
		return
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Warning("close redis err:", err)
		}
	}()

	server := web.NewServer()
	if err := server.Start(); err != nil {
		logger.Error("start server err:", err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			logger.Info("reloading web server, Redis connection and sessions are kept")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer()
			if err := server.Start(); err != nil {
				logger.Error("restart server err:", err)
				return
			}
		default:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func migrateDb() error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.CloseDB()
	fmt.Println("Migration done!")
	return nil
}

func createAdmin(handle, email, password string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.CloseDB()

	userService := service.UserService{}
	user, err := userService.CreateAdmin(context.Background(), service.Registration{
		Handle:   handle,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return err
	}
	fmt.Printf("administrator %s (%s) created\n", user.Handle, user.Email)
	return nil
}

func setAdmin(email string, admin bool) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.CloseDB()

	userService := service.UserService{}
	if err := userService.SetAdmin(context.Background(), email, admin); err != nil {
		return err
	}
	if admin {
		fmt.Printf("%s is now an administrator\n", email)
	} else {
		fmt.Printf("%s is no longer an administrator\n", email)
	}
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Println("load .env failed:", err)
	}

	rootCmd := &cobra.Command{
		Use:     config.GetName(),
		Short:   "Community map of geotagged observations",
		Version: config.GetVersion(),
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrateDb()
		},
	}

	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, _ := cmd.Flags().GetString("handle")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			return createAdmin(handle, email, password)
		},
	}
	createCmd.Flags().String("handle", "", "administrator handle")
	createCmd.Flags().String("email", "", "administrator email")
	createCmd.Flags().String("password", "", "administrator password")
	_ = createCmd.MarkFlagRequired("handle")
	_ = createCmd.MarkFlagRequired("email")
	_ = createCmd.MarkFlagRequired("password")

	promoteCmd := &cobra.Command{
		Use:   "promote <email>",
		Short: "Grant administrator rights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setAdmin(args[0], true)
		},
	}

	demoteCmd := &cobra.Command{
		Use:   "demote <email>",
		Short: "Revoke administrator rights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setAdmin(args[0], false)
		},
	}

	adminCmd.AddCommand(createCmd, promoteCmd, demoteCmd)
	rootCmd.AddCommand(runCmd, migrateCmd, adminCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
