package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"selfcinema/internal/api/client"
	"selfcinema/internal/domain"
)

var seriesFlags struct {
	title         string
	englishTitle  string
	description   string
	coverImage    string
	backdropImage string
	totalEpisodes int
	releaseYear   int
	genre         string
	rating        float64
	status        string
	director      string
	actors        string
	region        string
	language      string
	tags          string
	confirm       bool
}

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Manage series in the catalog",
}

var seriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all series",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, _ := newCatalogClient()
		ctx, cancel := commandContext()
		defer cancel()

		series, err := catalog.ListSeries(ctx)
		if err != nil {
			return describeAuth(err)
		}
		return printJSON(series)
	},
}

var seriesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new series",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seriesFlags.title == "" {
			return fmt.Errorf("--title is required")
		}
		catalog, _ := newCatalogClient()
		ctx, cancel := commandContext()
		defer cancel()

		created, err := catalog.CreateSeries(ctx, seriesRequestFromFlags())
		if err != nil {
			return describeAuth(err)
		}
		return printJSON(created)
	},
}

var seriesUpdateCmd = &cobra.Command{
	Use:   "update <series-id>",
	Short: "Update an existing series (only the provided flags change)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, _ := newCatalogClient()
		ctx, cancel := commandContext()
		defer cancel()

		updated, err := catalog.UpdateSeries(ctx, domain.SeriesID(args[0]), seriesRequestFromFlags())
		if err != nil {
			return describeAuth(err)
		}
		return printJSON(updated)
	},
}

var seriesDeleteCmd = &cobra.Command{
	Use:   "delete <series-id>",
	Short: "Delete a series and all of its episodes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !seriesFlags.confirm {
			return fmt.Errorf("deleting a series removes all its episodes; pass --confirm to proceed")
		}
		catalog, _ := newCatalogClient()
		ctx, cancel := commandContext()
		defer cancel()

		if err := catalog.DeleteSeries(ctx, domain.SeriesID(args[0])); err != nil {
			return describeAuth(err)
		}
		fmt.Println("Deleted.")
		return nil
	},
}

var shareCmd = &cobra.Command{
	Use:   "share <series-id>",
	Short: "Mint a public share link for a series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, _ := newCatalogClient()
		ctx, cancel := commandContext()
		defer cancel()

		link, err := catalog.ShareLink(ctx, domain.SeriesID(args[0]))
		if err != nil {
			return describeAuth(err)
		}
		fmt.Println(link.ShareURL)
		return nil
	},
}

func seriesRequestFromFlags() domain.CreateSeriesRequest {
	return domain.CreateSeriesRequest{
		Title:         seriesFlags.title,
		EnglishTitle:  seriesFlags.englishTitle,
		Description:   seriesFlags.description,
		CoverImage:    seriesFlags.coverImage,
		BackdropImage: seriesFlags.backdropImage,
		TotalEpisodes: seriesFlags.totalEpisodes,
		ReleaseYear:   seriesFlags.releaseYear,
		Genre:         splitCSV(seriesFlags.genre),
		Rating:        seriesFlags.rating,
		Status:        domain.SeriesStatus(seriesFlags.status),
		Director:      seriesFlags.director,
		Actors:        splitCSV(seriesFlags.actors),
		Region:        seriesFlags.region,
		Language:      seriesFlags.language,
		Tags:          splitCSV(seriesFlags.tags),
	}
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// describeAuth turns a 401/403 into an actionable message.
func describeAuth(err error) error {
	if client.IsAuthError(err) {
		return fmt.Errorf("not authenticated or session expired, run \"cinectl login\" first")
	}
	return err
}

func addSeriesMutationFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&seriesFlags.title, "title", "", "series title")
	cmd.Flags().StringVar(&seriesFlags.englishTitle, "english-title", "", "english title")
	cmd.Flags().StringVar(&seriesFlags.description, "description", "", "description")
	cmd.Flags().StringVar(&seriesFlags.coverImage, "cover", "", "cover image URL")
	cmd.Flags().StringVar(&seriesFlags.backdropImage, "backdrop", "", "backdrop image URL")
	cmd.Flags().IntVar(&seriesFlags.totalEpisodes, "total-episodes", 0, "planned episode count")
	cmd.Flags().IntVar(&seriesFlags.releaseYear, "release-year", 0, "release year")
	cmd.Flags().StringVar(&seriesFlags.genre, "genre", "", "genres, comma separated")
	cmd.Flags().Float64Var(&seriesFlags.rating, "rating", 0, "rating")
	cmd.Flags().StringVar(&seriesFlags.status, "status", "", "airing status")
	cmd.Flags().StringVar(&seriesFlags.director, "director", "", "director")
	cmd.Flags().StringVar(&seriesFlags.actors, "actors", "", "actors, comma separated")
	cmd.Flags().StringVar(&seriesFlags.region, "region", "", "region")
	cmd.Flags().StringVar(&seriesFlags.language, "language", "", "language")
	cmd.Flags().StringVar(&seriesFlags.tags, "tags", "", "tags, comma separated")
}

func init() {
	addSeriesMutationFlags(seriesCreateCmd)
	addSeriesMutationFlags(seriesUpdateCmd)
	seriesDeleteCmd.Flags().BoolVar(&seriesFlags.confirm, "confirm", false, "confirm the deletion")

	seriesCmd.AddCommand(seriesListCmd)
	seriesCmd.AddCommand(seriesCreateCmd)
	seriesCmd.AddCommand(seriesUpdateCmd)
	seriesCmd.AddCommand(seriesDeleteCmd)

	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(shareCmd)
}
