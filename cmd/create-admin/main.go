package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"todoapi/backend/internal/config"
	"todoapi/backend/internal/domain"
	sqlstore "todoapi/backend/internal/storage/sql"
)

// main 创建管理员账号的命令行工具
func main() {
	var (
		email    = flag.String("email", "", "管理员邮箱")
		password = flag.String("password", "", "管理员密码")
		super    = flag.Bool("super", false, "创建超级管理员")
	)
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: create-admin -email <email> -password <password> [-super]")
		os.Exit(1)
	}
	if len(*password) < 8 {
		fmt.Fprintln(os.Stderr, "password must be at least 8 characters")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.Type == "" {
		fmt.Fprintln(os.Stderr, "database type not configured")
		os.Exit(1)
	}

	store, err := sqlstore.NewStore(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	roleLevel := domain.RoleLevelAdmin
	if *super {
		roleLevel = domain.RoleLevelSuper
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        *email,
		PasswordHash: string(hash),
		RoleLevel:    roleLevel,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.CreateUser(ctx, user); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("admin user created: %s (role level %d)\n", user.Email, user.RoleLevel)
}
