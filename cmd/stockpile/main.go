package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"stockpile/internal/config"
	"stockpile/internal/domain/models"
	"stockpile/internal/lib/logger/sl"
	"stockpile/internal/metrics"
	"stockpile/internal/services/session"
	"stockpile/internal/services/tokenstore"
	"stockpile/internal/storage/keystore"
	"stockpile/internal/transport/client"
	"stockpile/internal/transport/client/dto"

	"github.com/fatih/color"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	ksPath := cfg.Keystore.Path
	if ksPath == "" {
		ksPath = keystore.DefaultPath()
	}

	ks, err := keystore.New(ksPath)
	if err != nil {
		fail("cannot open keystore: %v", err)
	}

	store := tokenstore.New(log, ks)
	api := client.New(log, cfg.API.BaseURL, cfg.API.Timeout, cfg.Session.ExpirySkew, store)
	manager := session.New(log, api)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	// nothing renders before the session state is known
	manager.Bootstrap(ctx)

	err = dispatch(ctx, manager, cfg, args[0], args[1:])

	if cfg.Metrics.Debug {
		if dumpErr := metrics.Dump(os.Stderr); dumpErr != nil {
			log.Warn("cannot dump metrics", sl.Err(dumpErr))
		}
	}

	if err != nil {
		if errors.Is(err, client.ErrAuthExpired) {
			fail("session expired, please login again")
		}

		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			fail("%s", apiErr.Message)
		}

		fail("%v", err)
	}
}

func dispatch(ctx context.Context, m *session.Manager, cfg *config.Config, cmd string, args []string) error {
	switch cmd {
	case "login":
		return runLogin(ctx, m, args)
	case "logout":
		m.Logout()
		success("logged out")
		return nil
	case "register":
		return runRegister(ctx, m, args)
	case "whoami":
		return runWhoami(m)
	case "profile":
		return runProfile(ctx, m, args)
	case "change-email":
		return runChangeEmail(ctx, m, args)
	case "change-password":
		return runChangePassword(ctx, m, args)
	case "products":
		return runProducts(ctx, m, args)
	case "add":
		return runAddProduct(ctx, m, args)
	case "update":
		return runUpdateProduct(ctx, m, args)
	case "deactivate":
		return runDeactivate(ctx, m, args)
	case "delete":
		return runDelete(ctx, m, args)
	case "dashboard":
		return runDashboard(ctx, m, cfg, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runLogin(ctx context.Context, m *session.Manager, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	user, err := m.Login(ctx, *email, *password)
	if err != nil {
		return err
	}

	success("logged in as %s", user.Email)

	return nil
}

func runRegister(ctx context.Context, m *session.Manager, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	plan := fs.String("plan", "free", "plan code")
	fs.Parse(args)

	account, err := m.Register(ctx, dto.RegisterRequest{
		Email:    *email,
		PlanCode: *plan,
		Password: *password,
	})
	if err != nil {
		return err
	}

	success("account %s created on plan %s, you can login now", account.Email, account.PlanCode)

	return nil
}

func runWhoami(m *session.Manager) error {
	user, ok := m.User()
	if !ok {
		return errors.New("not logged in")
	}

	bold := color.New(color.Bold)
	bold.Println(user.Email)
	if user.Username != "" {
		fmt.Println("username:", user.Username)
	}
	fmt.Println("last login:", user.LastLogin)

	return nil
}

func runProfile(ctx context.Context, m *session.Manager, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	username := fs.String("username", "", "display name")
	avatar := fs.String("avatar", "", "avatar URL")
	address := fs.String("address", "", "address")
	country := fs.String("country", "", "country")
	phone := fs.String("phone", "", "phone number")
	fs.Parse(args)

	err := m.UpdateProfile(ctx, dto.ProfileUpdateRequest{
		Username:    *username,
		AvatarURL:   *avatar,
		Address:     *address,
		Country:     *country,
		PhoneNumber: *phone,
	})
	if err != nil {
		return err
	}

	success("profile updated")

	return nil
}

func runChangeEmail(ctx context.Context, m *session.Manager, args []string) error {
	fs := flag.NewFlagSet("change-email", flag.ExitOnError)
	email := fs.String("email", "", "new email")
	fs.Parse(args)

	account, err := m.ChangeEmail(ctx, *email)
	if err != nil {
		return err
	}

	success("email changed to %s", account.Email)

	return nil
}

func runChangePassword(ctx context.Context, m *session.Manager, args []string) error {
	fs := flag.NewFlagSet("change-password", flag.ExitOnError)
	current := fs.String("current", "", "current password")
	next := fs.String("new", "", "new password")
	fs.Parse(args)

	if _, err := m.ChangePassword(ctx, dto.ChangePasswordRequest{
		Password:    *current,
		NewPassword: *next,
	}); err != nil {
		return err
	}

	success("password changed")

	return nil
}

func runProducts(ctx context.Context, m *session.Manager, args []string) error {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	order := fs.String("order", "desc", "sort order: asc or desc")
	fs.Parse(args)

	products, err := m.Client().MyProducts(ctx, models.Order(*order))
	if err != nil {
		return err
	}

	if len(products) == 0 {
		fmt.Println("no products yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTOCK\tPRICE\tCOST\tPLATFORM\tSTATE")
	for _, p := range products {
		state := "active"
		if p.Inactive {
			state = "inactive"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%.2f\t%.2f\t%s\t%s\n",
			p.ID, p.Name, p.AvailableStock, p.Price, p.Cost, p.Platform, state)
	}

	return w.Flush()
}

func runAddProduct(ctx context.Context, m *session.Manager, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	name := fs.String("name", "", "product name")
	description := fs.String("description", "", "description")
	stock := fs.Int("stock", 0, "available stock")
	price := fs.Float64("price", 0, "sale price")
	cost := fs.Float64("cost", 0, "acquisition cost")
	platform := fs.String("platform", "", "platform")
	img := fs.String("img", "", "image URL")
	fs.Parse(args)

	product, err := m.Client().AddProduct(ctx, dto.AddProductRequest{
		Name:           *name,
		Description:    *description,
		AvailableStock: *stock,
		Price:          *price,
		Cost:           *cost,
		Platform:       *platform,
		ImgURL:         *img,
	})
	if err != nil {
		return err
	}

	success("product %q created with id %d", product.Name, product.ID)

	return nil
}

func runUpdateProduct(ctx context.Context, m *session.Manager, args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	id := fs.Int64("id", 0, "product id")
	name := fs.String("name", "", "product name")
	description := fs.String("description", "", "description")
	stock := fs.Int("stock", 0, "available stock")
	price := fs.Float64("price", 0, "sale price")
	cost := fs.Float64("cost", 0, "acquisition cost")
	platform := fs.String("platform", "", "platform")
	img := fs.String("img", "", "image URL")
	fs.Parse(args)

	// only flags the user actually passed become part of the patch
	var req dto.UpdateProductRequest
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			req.Name = name
		case "description":
			req.Description = description
		case "stock":
			req.AvailableStock = stock
		case "price":
			req.Price = price
		case "cost":
			req.Cost = cost
		case "platform":
			req.Platform = platform
		case "img":
			req.ImgURL = img
		}
	})

	product, err := m.Client().UpdateProduct(ctx, *id, req)
	if err != nil {
		return err
	}

	success("product %d updated", product.ID)

	return nil
}

func runDeactivate(ctx context.Context, m *session.Manager, args []string) error {
	fs := flag.NewFlagSet("deactivate", flag.ExitOnError)
	id := fs.Int64("id", 0, "product id")
	fs.Parse(args)

	product, err := m.Client().DeactivateProduct(ctx, *id)
	if err != nil {
		return err
	}

	success("product %d deactivated", product.ID)

	return nil
}

func runDelete(ctx context.Context, m *session.Manager, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.Int64("id", 0, "product id")
	fs.Parse(args)

	detail, err := m.Client().DeleteProduct(ctx, *id)
	if err != nil {
		return err
	}

	success("%s", detail)

	return nil
}

func runDashboard(ctx context.Context, m *session.Manager, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	threshold := fs.Int("threshold", cfg.Session.LowStockThreshold, "low stock threshold")
	fs.Parse(args)

	d, err := m.Client().Dashboard(ctx, *threshold)
	if err != nil {
		return err
	}

	if d.IsEmpty {
		fmt.Println(d.EmptyMessage)
		return nil
	}

	bold := color.New(color.Bold)

	bold.Println("Summary")
	fmt.Printf("  available stock: %d\n", d.AvailableStock)
	fmt.Printf("  total price:     %.2f\n", d.TotalPrice)
	fmt.Printf("  stock cost:      %.2f\n", d.StockCost)
	printProfit("  total profit:    ", d.TotalProfit)

	if len(d.LosingProducts) > 0 {
		bold.Println("Losing products")
		for _, p := range d.LosingProducts {
			color.Red("  %s loses %.2f per item", p.Name, p.LossPerItem)
		}
	}

	bold.Println("Low stock")
	if d.LowStockMessage != "" {
		color.Green("  %s", d.LowStockMessage)
	}
	for _, item := range d.LowStock {
		color.Yellow("  %s: %d left", item.Name, item.Stock)
	}

	if len(d.TopProducts) > 0 {
		bold.Println("Top products")
		for _, p := range d.TopProducts {
			fmt.Printf("  %s: %.2f\n", p.Name, p.Profit)
		}
	}

	if len(d.WorstProducts) > 0 {
		bold.Println("Worst products")
		for _, p := range d.WorstProducts {
			fmt.Printf("  %s: %.2f\n", p.Name, p.Profit)
		}
	}

	return nil
}

func printProfit(label string, profit float64) {
	c := color.New(color.FgGreen)
	if profit < 0 {
		c = color.New(color.FgRed)
	}

	fmt.Print(label)
	c.Println(strconv.FormatFloat(profit, 'f', 2, 64))
}

func success(format string, args ...any) {
	color.Green(format, args...)
}

func fail(format string, args ...any) {
	color.Red(format, args...)
	os.Exit(1)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: stockpile --config=<path> <command> [flags]

commands:
  login            -email -password
  logout
  register         -email -password [-plan]
  whoami
  profile          [-username -avatar -address -country -phone]
  change-email     -email
  change-password  -current -new
  products         [-order asc|desc]
  add              -name [-description -stock -price -cost -platform -img]
  update           -id [same flags as add]
  deactivate       -id
  delete           -id
  dashboard        [-threshold n]`)
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelWarn,
			}),
		)
	}

	return log
}
