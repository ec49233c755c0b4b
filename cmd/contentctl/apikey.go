package main

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coursehub/content/internal/cache"
	"github.com/coursehub/content/internal/model"
	"github.com/coursehub/content/internal/service"
)

var apiKeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys",
}

var (
	createEmail    string
	createNickname string
	createUsername string
	createName     string
	createScopes   string
	createTier     string
	createEnv      string
	createFormat   string
)

var apiKeyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue an API key, creating the owning user if needed",
	Long: `Issue an API key for the user with --email. The user is created
when absent. The plaintext key is printed once and cannot be recovered.

Examples:
  contentctl apikey create --email ada@example.com
  contentctl apikey create --email ops@example.com --scopes read,write --tier pro --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger(cmd)

		if createEmail == "" {
			return fmt.Errorf("--email is required")
		}
		format := strings.ToLower(createFormat)
		if format != "plain" && format != "json" {
			return fmt.Errorf("invalid format %q; use plain or json", createFormat)
		}

		repo, err := openRepository(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		username := createUsername
		if username == "" {
			username = deriveUsername(createEmail)
		}
		nickname := createNickname
		if nickname == "" {
			nickname = username
		}

		user, err := repo.GetOrCreateUser(ctx, &model.User{
			Email:    createEmail,
			Nickname: nickname,
			Username: username,
		})
		if err != nil {
			return fmt.Errorf("ensure user: %w", err)
		}

		keys := service.NewAPIKeyService(repo, nil, logger)
		created, err := keys.Create(ctx, service.CreateAPIKeyInput{
			UserID:       user.ID,
			Name:         createName,
			Scopes:       parseScopes(createScopes),
			Env:          createEnv,
			Tier:         createTier,
			CallerScopes: []string{model.ScopeAdmin},
		})
		if err != nil {
			return fmt.Errorf("create api key: %w", err)
		}

		return printCreated(cmd.OutOrStdout(), format, user, created)
	},
}

var revokeUserID int64

var apiKeyRevokeCmd = &cobra.Command{
	Use:   "revoke KEY_ID",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger(cmd)

		if revokeUserID <= 0 {
			return fmt.Errorf("--user-id is required")
		}
		if redisURL == "" {
			return fmt.Errorf("--redis-url or REDIS_URL is required to invalidate cached sessions")
		}

		repo, err := openRepository(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		c, err := cache.New(ctx, redisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer c.Close()

		key, err := service.NewAPIKeyService(repo, c, logger).Revoke(ctx, revokeUserID, args[0])
		if err != nil {
			return fmt.Errorf("revoke api key: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "revoked %s (%s)\n", key.ID, key.KeyPrefix)
		return nil
	},
}

var listUserID int64

var apiKeyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the API keys of a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if listUserID <= 0 {
			return fmt.Errorf("--user-id is required")
		}

		repo, err := openRepository(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		keys, err := service.NewAPIKeyService(repo, nil, newLogger(cmd)).List(ctx, listUserID)
		if err != nil {
			return err
		}
		printKeys(cmd.OutOrStdout(), keys)
		return nil
	},
}

func init() {
	apiKeyCreateCmd.Flags().StringVar(&createEmail, "email", "", "Email of the owning user")
	apiKeyCreateCmd.Flags().StringVar(&createNickname, "nickname", "", "Nickname for a newly created user")
	apiKeyCreateCmd.Flags().StringVar(&createUsername, "username", "", "Username for a newly created user (default derived from email)")
	apiKeyCreateCmd.Flags().StringVar(&createName, "name", "bootstrap", "Key name")
	apiKeyCreateCmd.Flags().StringVar(&createScopes, "scopes", "read,write", "Comma-separated scopes (read,write,admin)")
	apiKeyCreateCmd.Flags().StringVar(&createTier, "tier", model.TierFree, "Rate limit tier (free,pro,unlimited)")
	apiKeyCreateCmd.Flags().StringVar(&createEnv, "env", "live", "Key environment (live,test)")
	apiKeyCreateCmd.Flags().StringVar(&createFormat, "format", "plain", "Output format: plain or json")

	apiKeyRevokeCmd.Flags().Int64Var(&revokeUserID, "user-id", 0, "Owner of the key")
	apiKeyListCmd.Flags().Int64Var(&listUserID, "user-id", 0, "Owner of the keys")

	apiKeyCmd.AddCommand(apiKeyCreateCmd, apiKeyRevokeCmd, apiKeyListCmd)
}

type createdOutput struct {
	UserID    int64    `json:"userId"`
	Email     string   `json:"email"`
	KeyID     string   `json:"keyId"`
	Key       string   `json:"key"`
	KeyPrefix string   `json:"keyPrefix"`
	Scopes    []string `json:"scopes"`
	Tier      string   `json:"tier"`
}

func printCreated(w io.Writer, format string, user *model.User, created *service.CreatedAPIKey) error {
	if format == "plain" {
		_, err := fmt.Fprintln(w, created.Plaintext)
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(createdOutput{
		UserID:    user.ID,
		Email:     user.Email,
		KeyID:     created.Key.ID,
		Key:       created.Plaintext,
		KeyPrefix: created.Key.KeyPrefix,
		Scopes:    created.Key.Scopes,
		Tier:      created.Key.RateLimitTier,
	})
}

func printKeys(w io.Writer, keys []*model.APIKey) {
	for _, k := range keys {
		status := "active"
		if k.IsRevoked() {
			status = "revoked"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", k.ID, k.KeyPrefix, k.Name, strings.Join(k.Scopes, ","), status)
	}
}

// parseScopes splits a comma list. Validation happens in the service.
func parseScopes(input string) []string {
	var scopes []string
	for _, part := range strings.Split(input, ",") {
		if scope := strings.TrimSpace(strings.ToLower(part)); scope != "" {
			scopes = append(scopes, scope)
		}
	}
	return scopes
}

var usernameDisallowed = regexp.MustCompile(`[^a-z0-9_]+`)

// deriveUsername turns the local part of email into a valid username.
func deriveUsername(email string) string {
	local, _, _ := strings.Cut(strings.ToLower(email), "@")
	name := strings.Trim(usernameDisallowed.ReplaceAllString(local, "_"), "_")
	for len(name) < 3 {
		name += "_"
	}
	if len(name) > 32 {
		name = name[:32]
	}
	return name
}
