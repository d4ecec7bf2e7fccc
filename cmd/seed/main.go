// File: cmd/seed/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"ai-assistant-backend/internal/config"
	"ai-assistant-backend/internal/domain/model"
	pg "ai-assistant-backend/internal/infra/db/postgres"
	"ai-assistant-backend/internal/infra/logging"
	"ai-assistant-backend/internal/infra/security"
	"ai-assistant-backend/internal/usecase"
)

// seedFile lists vendor credentials to create when their vendor has none yet.
type seedFile struct {
	Credentials []seedCredential `yaml:"credentials"`
}

type seedCredential struct {
	Vendor  string `yaml:"vendor"`
	Name    string `yaml:"name"`
	AppID   string `yaml:"app_id"`
	Secret  string `yaml:"secret"`
	Model   string `yaml:"model"`
	Cluster string `yaml:"cluster"`
	Enabled *bool  `yaml:"enabled"`
}

func parseSeedFile(b []byte) (map[model.Vendor][]model.VendorCredentialPatch, error) {
	var f seedFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	out := make(map[model.Vendor][]model.VendorCredentialPatch)
	for i, c := range f.Credentials {
		v, err := model.ParseVendor(c.Vendor)
		if err != nil {
			return nil, fmt.Errorf("credentials[%d]: %w", i, err)
		}
		if c.Secret == "" {
			return nil, fmt.Errorf("credentials[%d]: secret is required", i)
		}
		enabled := true
		if c.Enabled != nil {
			enabled = *c.Enabled
		}
		out[v] = append(out[v], model.VendorCredentialPatch{
			Name:    &c.Name,
			AppID:   &c.AppID,
			Secret:  &c.Secret,
			Model:   &c.Model,
			Cluster: &c.Cluster,
			Enabled: &enabled,
		})
	}
	return out, nil
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	seedPath := flag.String("file", "", "optional YAML file with vendor credentials")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	secrets, err := security.NewSecretBox(cfg.Security.EncryptionKey)
	if err != nil {
		log.Fatalf("security: %v", err)
	}
	tm := pg.NewTxManager(pool)
	userUC := usecase.NewUserUseCase(pg.NewPostgresUserRepo(pool), pg.NewActivationCodeRepo(pool), nil, tm, usecase.UserOptions{}, logger)
	credUC := usecase.NewCredentialUseCase(pg.NewVendorCredentialRepo(pool, secrets), logger)

	if cfg.Admin.Username != "" {
		admin, created, err := userUC.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
		if created {
			fmt.Printf("seeded admin: %s (id=%s)\n", admin.Username, admin.ID)
		} else {
			fmt.Printf("admin %s already present. No changes.\n", admin.Username)
		}
	}

	if *seedPath == "" {
		return
	}
	b, err := os.ReadFile(*seedPath)
	if err != nil {
		log.Fatalf("read seed file: %v", err)
	}
	byVendor, err := parseSeedFile(b)
	if err != nil {
		log.Fatalf("%v", err)
	}
	for vendor, patches := range byVendor {
		_, total, err := credUC.List(ctx, vendor, 1, 1)
		if err != nil {
			log.Fatalf("list %s credentials: %v", vendor, err)
		}
		if total > 0 {
			fmt.Printf("%d %s credentials already present. No changes.\n", total, vendor)
			continue
		}
		for _, p := range patches {
			c, err := credUC.Create(ctx, vendor, p)
			if err != nil {
				log.Fatalf("create %s credential %q: %v", vendor, *p.Name, err)
			}
			fmt.Printf("seeded: %s credential %q (id=%s, enabled=%v)\n", vendor, c.Name, c.ID, c.Enabled)
		}
	}
}
