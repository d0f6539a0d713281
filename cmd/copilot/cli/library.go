package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var libraryPattern string

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Browse the saved content library",
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved content",
	Run: func(cmd *cobra.Command, args []string) {
		s := getStore()
		defer s.Close()

		records, err := s.ListContent(libraryPattern)
		if err != nil {
			fmt.Printf("Failed to list library: %v\n", err)
			os.Exit(1)
		}
		if len(records) == 0 {
			fmt.Println("(library is empty)")
			return
		}
		for _, rec := range records {
			fmt.Printf("%s  %-16s %-24s %s\n", rec.ID, rec.Kind, rec.Topic, rec.Title)
		}
	},
}

var libraryShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print one saved piece in full",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := getStore()
		defer s.Close()

		rec, err := s.GetContent(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s (%s, %s)\n\n%s\n", rec.Title, rec.Kind, rec.Topic, rec.Body)
	},
}

var libraryDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a saved piece",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := getStore()
		defer s.Close()

		if err := s.DeleteContent(args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Deleted.")
	},
}

var librarySessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded chat sessions",
	Run: func(cmd *cobra.Command, args []string) {
		s := getStore()
		defer s.Close()

		sessions, err := s.ListChatSessions()
		if err != nil {
			fmt.Printf("Failed to list sessions: %v\n", err)
			os.Exit(1)
		}
		if len(sessions) == 0 {
			fmt.Println("(no sessions recorded)")
			return
		}
		for _, sess := range sessions {
			module := sess.Module
			if module == "" {
				module = "-"
			}
			fmt.Printf("%s  %-10s %-18s %3d turns  %s\n",
				sess.ID, sess.Provider, module, sess.Turns,
				sess.StartedAt.Format("2006-01-02 15:04"))
		}
	},
}

func init() {
	RootCmd.AddCommand(libraryCmd)
	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryShowCmd)
	libraryCmd.AddCommand(libraryDeleteCmd)
	libraryCmd.AddCommand(librarySessionsCmd)
	libraryListCmd.Flags().StringVar(&libraryPattern, "pattern", "", "Glob over kind/topic, e.g. 'blog_article/*' or '**/yoga-*'")
}
