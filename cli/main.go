package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"yeoladin/board"
	"yeoladin/config"
	"yeoladin/http"
	"yeoladin/mainpage"
	"yeoladin/router"
	"yeoladin/shortform"
	"yeoladin/storage"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "login":
		cmdLogin(args)
	case "logout":
		cmdLogout(args)
	case "whoami":
		cmdWhoami(args)
	case "videos":
		cmdVideos(args)
	case "show":
		cmdShow(args)
	case "view":
		cmdView(args)
	case "favorite":
		cmdFavorite(args)
	case "related":
		cmdRelated(args)
	case "popular":
		cmdPopular(args)
	case "delete":
		cmdDelete(args)
	case "board":
		cmdBoard(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `yeoladin - trip-board short-video client

Usage:
  yeoladin login -email <email> -pw <password>   Log in and store the session
  yeoladin logout                                Log out and clear the session
  yeoladin whoami                                Show the logged-in member
  yeoladin videos [-page N]                      List videos (paged)
  yeoladin show <pk>                             Show one video's details
  yeoladin view <pk>                             Count a view for a video
  yeoladin favorite <pk>                         Toggle favorite on a video
  yeoladin related <content-type> [-page N]      Open related videos for a category
  yeoladin popular                               List popular shortforms
  yeoladin delete <pk>                           Delete a video
  yeoladin board [-page N] [-view board|filter]  Show or change board preferences
  yeoladin help                                  Show this help message
`)
}

// app bundles the wired client components.
type app struct {
	cfg      *config.Config
	store    storage.Store
	session  *http.SessionManager
	nav      *router.MemoryRouter
	client   *http.Client
	videos   *shortform.Store
	mainpage *mainpage.Store
}

// setup constructs the application context: durable storage, session
// manager, router, API client and stores, wired together explicitly.
func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	fileStore, err := storage.NewFileStore(cfg.StateDir)
	if err != nil {
		return nil, err
	}

	session, err := http.NewSessionManager(http.SessionConfig{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Store:   fileStore,
	})
	if err != nil {
		return nil, err
	}

	nav := router.NewMemoryRouter(session)
	session.SetNavigator(nav)

	client := http.New(&http.Config{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
		RateLimiter: http.RateLimiterConfig{
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
		},
		Transport: http.TransportConfig{
			MaxIdleConns:        cfg.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
			IdleConnTimeout:     cfg.IdleConnTimeout,
		},
	}, session)

	api := shortform.NewAPI(client)
	videos, err := shortform.NewStore(shortform.StoreConfig{
		API:          api,
		Session:      session,
		Navigator:    nav,
		ItemsPerPage: cfg.ItemsPerPage,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		store:    fileStore,
		session:  session,
		nav:      nav,
		client:   client,
		videos:   videos,
		mainpage: mainpage.NewStore(api),
	}, nil
}

func mustSetup() *app {
	a, err := setup()
	if err != nil {
		fatal(err)
	}
	return a
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func fatalStore(a *app, err error) {
	if msg := a.videos.Err(); msg != "" {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}

func cmdLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "login email")
	pw := fs.String("pw", "", "login password")
	fs.Parse(args)

	if *email == "" || *pw == "" {
		fmt.Fprintln(os.Stderr, "login requires -email and -pw")
		os.Exit(1)
	}

	a := mustSetup()
	member, err := a.session.Login(context.Background(), http.Credentials{Email: *email, Password: *pw})
	if err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %s\n", http.UserMessage(err, "Login failed."))
		os.Exit(1)
	}
	if member != nil {
		fmt.Printf("Logged in as %s <%s>\n", member.Name, member.Email)
	} else {
		fmt.Println("Logged in.")
	}
}

func cmdLogout(args []string) {
	a := mustSetup()
	a.session.Logout(context.Background())
	fmt.Println("Logged out.")
}

func cmdWhoami(args []string) {
	a := mustSetup()
	member := a.session.User()
	if member == nil {
		fmt.Println("Not logged in.")
		return
	}
	fmt.Printf("%s <%s> (member %d)\n", member.Name, member.Email, member.ID)
}

func cmdVideos(args []string) {
	fs := flag.NewFlagSet("videos", flag.ExitOnError)
	page := fs.Int("page", 1, "page number")
	fs.Parse(args)

	a := mustSetup()
	ctx := context.Background()
	if err := a.videos.FetchAll(ctx); err != nil {
		fatalStore(a, err)
	}

	videos := a.videos.VideosForPage(*page)
	if len(videos) == 0 {
		fmt.Printf("No videos on page %d of %d.\n", *page, a.videos.TotalPages())
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PK\tTITLE\tAUTHOR\tVIEWS\tFAVORITES")
	for _, v := range videos {
		fav := fmt.Sprintf("%d", v.FavoriteCount)
		if v.FavoritedByCurrentUser {
			fav += " *"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", v.PK, v.Title, v.Author, v.Views, fav)
	}
	w.Flush()
	fmt.Printf("Page %d of %d\n", *page, a.videos.TotalPages())
}

func cmdShow(args []string) {
	pk := requirePK(args, "show")
	a := mustSetup()

	video, err := a.videos.FetchDetail(context.Background(), pk)
	if err != nil {
		fatalStore(a, err)
	}

	fmt.Printf("PK:        %s\n", video.PK)
	fmt.Printf("Title:     %s\n", video.Title)
	fmt.Printf("Author:    %s\n", video.Author)
	fmt.Printf("Views:     %d\n", video.Views)
	fmt.Printf("Favorites: %d\n", video.FavoriteCount)
	if video.Content != "" {
		fmt.Printf("Content:   %s\n", video.Content)
	}
	if len(video.ContentTypes) > 0 {
		fmt.Printf("Types:     %v\n", video.ContentTypes)
	}
}

func cmdView(args []string) {
	pk := requirePK(args, "view")
	a := mustSetup()
	ctx := context.Background()

	if _, err := a.videos.FetchDetail(ctx, pk); err != nil {
		fatalStore(a, err)
	}
	if err := a.videos.IncrementView(ctx, pk); err != nil {
		fatalStore(a, err)
	}
	if current := a.videos.Current(); current != nil {
		fmt.Printf("Views for %s: %d\n", pk, current.Views)
	}
}

func cmdFavorite(args []string) {
	pk := requirePK(args, "favorite")
	a := mustSetup()
	ctx := context.Background()

	if _, err := a.videos.FetchDetail(ctx, pk); err != nil {
		fatalStore(a, err)
	}
	if err := a.videos.ToggleFavorite(ctx, pk); err != nil {
		fatalStore(a, err)
	}
	if current := a.videos.Current(); current != nil {
		state := "not favorited"
		if current.FavoritedByCurrentUser {
			state = "favorited"
		}
		fmt.Printf("%s: %s (%d favorites)\n", pk, state, current.FavoriteCount)
	}
}

func cmdRelated(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "related requires a content-type name")
		os.Exit(1)
	}
	contentType := args[0]
	fs := flag.NewFlagSet("related", flag.ExitOnError)
	page := fs.Int("page", 1, "page to return to")
	fs.Parse(args[1:])

	a := mustSetup()
	if err := a.videos.LoadRelatedAndFocus(context.Background(), contentType, fmt.Sprintf("%d", *page)); err != nil {
		fatalStore(a, err)
	}
	if msg := a.videos.Err(); msg != "" {
		fmt.Println(msg)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PK\tTITLE\tVIEWS\tFAVORITES")
	for _, v := range a.videos.ActiveList() {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", v.PK, v.Title, v.Views, v.FavoriteCount)
	}
	w.Flush()
	fmt.Printf("Now at %s\n", a.nav.Current())
}

func cmdPopular(args []string) {
	a := mustSetup()
	if err := a.mainpage.FetchPopular(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", a.mainpage.Err())
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PK\tTITLE\tVIEWS")
	for _, v := range a.mainpage.Popular() {
		fmt.Fprintf(w, "%s\t%s\t%d\n", v.PK, v.Title, v.Views)
	}
	w.Flush()
}

func cmdDelete(args []string) {
	pk := requirePK(args, "delete")
	a := mustSetup()
	ctx := context.Background()

	if err := a.videos.FetchAll(ctx); err != nil {
		fatalStore(a, err)
	}
	if err := a.videos.Delete(ctx, pk); err != nil {
		fatalStore(a, err)
	}
	fmt.Printf("Deleted %s.\n", pk)
}

func cmdBoard(args []string) {
	fs := flag.NewFlagSet("board", flag.ExitOnError)
	page := fs.Int("page", 0, "set the board page")
	view := fs.String("view", "", "set the view state (board|filter)")
	fs.Parse(args)

	a := mustSetup()
	prefs := board.NewPrefs(a.store)
	if *page > 0 {
		prefs.SetPage(*page)
	}
	if *view != "" {
		prefs.SetView(*view)
	}
	fmt.Printf("page=%d view=%s category=%s\n", prefs.Page(), prefs.View(), prefs.Category())
}

func requirePK(args []string, command string) shortform.PK {
	if len(args) < 1 || args[0] == "" {
		fmt.Fprintf(os.Stderr, "%s requires a video pk\n", command)
		os.Exit(1)
	}
	return shortform.PK(args[0])
}
