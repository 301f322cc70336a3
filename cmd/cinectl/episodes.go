package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"selfcinema/internal/domain"
)

var episodeFlags struct {
	seriesID    string
	episode     int
	title       string
	description string
	videoURL    string
	duration    string
	coverImage  string
	isVIP       bool
	confirm     bool
}

var episodesCmd = &cobra.Command{
	Use:   "episodes",
	Short: "Manage episodes within a series",
}

var episodesListCmd = &cobra.Command{
	Use:   "list <series-id>",
	Short: "List the episodes of a series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, _ := newCatalogClient()
		ctx, cancel := commandContext()
		defer cancel()

		episodes, err := catalog.ListEpisodes(ctx, domain.SeriesID(args[0]))
		if err != nil {
			return describeAuth(err)
		}
		return printJSON(episodes)
	},
}

var episodesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Add an episode to a series",
	RunE: func(cmd *cobra.Command, args []string) error {
		if episodeFlags.seriesID == "" {
			return fmt.Errorf("--series is required")
		}
		if episodeFlags.videoURL == "" {
			return fmt.Errorf("--video-url is required")
		}
		catalog, _ := newCatalogClient()
		ctx, cancel := commandContext()
		defer cancel()

		created, err := catalog.CreateEpisode(ctx, episodeRequestFromFlags())
		if err != nil {
			return describeAuth(err)
		}
		return printJSON(created)
	},
}

var episodesUpdateCmd = &cobra.Command{
	Use:   "update <episode-id>",
	Short: "Update an episode (only the provided flags change)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, _ := newCatalogClient()
		ctx, cancel := commandContext()
		defer cancel()

		updated, err := catalog.UpdateEpisode(ctx, domain.EpisodeID(args[0]), episodeRequestFromFlags())
		if err != nil {
			return describeAuth(err)
		}
		return printJSON(updated)
	},
}

var episodesDeleteCmd = &cobra.Command{
	Use:   "delete <episode-id>",
	Short: "Delete an episode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !episodeFlags.confirm {
			return fmt.Errorf("pass --confirm to delete this episode")
		}
		catalog, _ := newCatalogClient()
		ctx, cancel := commandContext()
		defer cancel()

		if err := catalog.DeleteEpisode(ctx, domain.EpisodeID(args[0])); err != nil {
			return describeAuth(err)
		}
		fmt.Println("Deleted.")
		return nil
	},
}

func episodeRequestFromFlags() domain.CreateEpisodeRequest {
	return domain.CreateEpisodeRequest{
		SeriesID:    domain.SeriesID(episodeFlags.seriesID),
		Episode:     episodeFlags.episode,
		Title:       episodeFlags.title,
		Description: episodeFlags.description,
		VideoURL:    episodeFlags.videoURL,
		Duration:    episodeFlags.duration,
		CoverImage:  episodeFlags.coverImage,
		IsVIP:       episodeFlags.isVIP,
	}
}

func addEpisodeMutationFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&episodeFlags.seriesID, "series", "", "parent series id")
	cmd.Flags().IntVar(&episodeFlags.episode, "episode", 0, "episode ordinal within the series")
	cmd.Flags().StringVar(&episodeFlags.title, "title", "", "episode title")
	cmd.Flags().StringVar(&episodeFlags.description, "description", "", "description")
	cmd.Flags().StringVar(&episodeFlags.videoURL, "video-url", "", "video source URL")
	cmd.Flags().StringVar(&episodeFlags.duration, "duration", "", "display duration, e.g. 24:30")
	cmd.Flags().StringVar(&episodeFlags.coverImage, "cover", "", "cover image URL")
	cmd.Flags().BoolVar(&episodeFlags.isVIP, "vip", false, "mark as VIP-only")
}

func init() {
	addEpisodeMutationFlags(episodesCreateCmd)
	addEpisodeMutationFlags(episodesUpdateCmd)
	episodesDeleteCmd.Flags().BoolVar(&episodeFlags.confirm, "confirm", false, "confirm the deletion")

	episodesCmd.AddCommand(episodesListCmd)
	episodesCmd.AddCommand(episodesCreateCmd)
	episodesCmd.AddCommand(episodesUpdateCmd)
	episodesCmd.AddCommand(episodesDeleteCmd)

	rootCmd.AddCommand(episodesCmd)
}
