package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/angelmondragon/pixcheckout/internal/identity"
	"github.com/angelmondragon/pixcheckout/internal/roles"
	"github.com/angelmondragon/pixcheckout/pkg/config"
	"github.com/angelmondragon/pixcheckout/pkg/db"
	"github.com/angelmondragon/pixcheckout/pkg/enums"
	"github.com/angelmondragon/pixcheckout/pkg/logger"
	"github.com/angelmondragon/pixcheckout/pkg/redis"
)

// roles grants, revokes and lists user_roles rows and drops any cached count
// so the API sees the change immediately. check resolves the user the way the
// API does, straight from the database.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "roles"})

	_ = godotenv.Load()

	action := flag.String("action", "list", "grant|revoke|list|check")
	userFlag := flag.String("user", "", "user id (uuid)")
	roleFlag := flag.String("role", string(enums.AppRoleAdmin), "role name")
	flag.Parse()

	cfg, err := config.Load()
	exitOnErr(ctx, logg, "load config", err)

	logg = logger.New(logger.Options{
		ServiceName: "roles",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})

	userID, err := uuid.Parse(*userFlag)
	exitOnErr(ctx, logg, "parse user", err)

	role, err := enums.ParseAppRole(*roleFlag)
	exitOnErr(ctx, logg, "parse role", err)

	ctx = logg.WithFields(ctx, map[string]any{
		"action":  *action,
		"user_id": userID.String(),
		"role":    role.String(),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	exitOnErr(ctx, logg, "bootstrap database", err)
	defer dbClient.Close()

	repo := roles.NewRepository(dbClient.DB(), cfg.Roles.LookupTimeout)

	switch *action {
	case "list":
		granted, err := repo.ListRoles(ctx, userID)
		exitOnErr(ctx, logg, "list roles", err)
		for _, r := range granted {
			fmt.Println(r)
		}
		return
	case "check":
		res, err := check(ctx, logg, repo, &roles.Identity{UserID: userID}, role, cfg.Roles.LookupTimeout)
		exitOnErr(ctx, logg, "check role", err)
		fmt.Printf("elevated=%t\n", res.IsElevated)
		return
	case "grant":
		exitOnErr(ctx, logg, "grant role", repo.Grant(ctx, userID, role))
	case "revoke":
		exitOnErr(ctx, logg, "revoke role", repo.Revoke(ctx, userID, role))
	default:
		exitOnErr(ctx, logg, "parse action", fmt.Errorf("unknown action %q", *action))
	}

	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		exitOnErr(ctx, logg, "bootstrap redis", err)
		defer redisClient.Close()

		cached := roles.NewCachedLookup(repo, redisClient, cfg.Roles.CacheTTL, logg)
		if err := cached.Invalidate(ctx, userID, role); err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "roles.cache.invalidate_failed")
		}
	}

	logg.Info(ctx, "roles updated")
}

// check drives a resolver through a one-shot session: sign in, wait for the
// answer, sign out.
func check(ctx context.Context, logg *logger.Logger, lookup roles.Lookup, id *roles.Identity, role enums.AppRole, timeout time.Duration) (roles.Result, error) {
	provider := identity.NewProvider()
	resolver := roles.NewResolver(lookup, roles.WithRole(role), roles.WithLogger(logg))
	defer resolver.Close()

	unsubscribe := resolver.Subscribe(func(res roles.Result) {
		logg.Debug(logg.WithFields(ctx, map[string]any{
			"is_elevated": res.IsElevated,
			"loading":     res.Loading,
		}), "roles.check.state")
	})
	defer unsubscribe()

	unbind := identity.Bind(ctx, provider, resolver)
	defer unbind()

	provider.Set(ctx, id)
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	res, err := resolver.Await(waitCtx)

	provider.SignOut(ctx)
	return res, err
}

func exitOnErr(ctx context.Context, logg *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(ctx, "step", step), "roles command failed", err)
	os.Exit(1)
}
