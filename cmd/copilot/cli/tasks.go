package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/affiliateai/copilot/internal/adapter"
	"github.com/affiliateai/copilot/internal/prompt"
	"github.com/affiliateai/copilot/internal/store"
	"github.com/affiliateai/copilot/internal/translator"
)

var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate raw text from a prompt",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		obs := newObserver()
		defer obs.Close()

		assistant, _, err := newAssistant(obs)
		if err != nil {
			fatal(obs, err, "Failed to init assistant")
		}
		s := getStore()
		defer s.Close()

		text, err := assistant.GenerateText(context.Background(),
			[]adapter.Message{{Role: translator.RoleUser, Content: strings.Join(args, " ")}},
			generationOptions(), resolveCredential(s, providerID), providerID)
		if err != nil {
			fatal(obs, err, "Generation failed")
		}
		fmt.Println(text)
	},
}

var nicheSubNiche string

var nicheCmd = &cobra.Command{
	Use:   "niche [niche]",
	Short: "Analyze the profitability of a niche",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		obs := newObserver()
		defer obs.Close()

		assistant, _, err := newAssistant(obs)
		if err != nil {
			fatal(obs, err, "Failed to init assistant")
		}
		s := getStore()
		defer s.Close()

		analysis, err := assistant.AnalyzeNiche(context.Background(), args[0], nicheSubNiche,
			resolveCredential(s, providerID), providerID)
		if err != nil {
			fatal(obs, err, "Niche analysis failed")
		}
		printJSON(analysis)
	},
}

var (
	contentType     string
	contentTopic    string
	contentProduct  string
	contentKeywords []string
	contentTone     string
	contentLength   string
	contentPlatform string
	contentLink     bool
	contentSave     bool
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Generate a piece of marketing content",
	Run: func(cmd *cobra.Command, args []string) {
		obs := newObserver()
		defer obs.Close()

		if contentTopic == "" {
			fmt.Println("--topic is required")
			os.Exit(1)
		}
		if contentType != "" && !prompt.KnownContentType(contentType) {
			fmt.Printf("Unknown content type %q. Known types:\n", contentType)
			for id := range prompt.ContentTypes {
				fmt.Printf("  %s\n", id)
			}
			os.Exit(1)
		}

		assistant, _, err := newAssistant(obs)
		if err != nil {
			fatal(obs, err, "Failed to init assistant")
		}
		s := getStore()
		defer s.Close()

		piece, err := assistant.GenerateContent(context.Background(), adapter.ContentPrompt{
			Type:                 contentType,
			Topic:                contentTopic,
			Product:              contentProduct,
			Keywords:             contentKeywords,
			Tone:                 contentTone,
			Length:               contentLength,
			Platform:             contentPlatform,
			IncludeAffiliateLink: contentLink,
		}, resolveCredential(s, providerID), providerID)
		if err != nil {
			fatal(obs, err, "Content generation failed")
		}
		printJSON(piece)

		if contentSave {
			rec := &store.ContentRecord{
				ID:        uuid.NewString(),
				Kind:      contentType,
				Topic:     contentTopic,
				Title:     piece.Title,
				Body:      piece.Content,
				Provider:  providerID,
				Metadata:  map[string]string{"tone": contentTone, "platform": contentPlatform},
				CreatedAt: time.Now(),
			}
			if err := s.SaveContent(rec); err != nil {
				fmt.Printf("Failed to save to library: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Saved to library: %s\n", rec.ID)
		}
	},
}

var keywordsSeed string

var keywordsCmd = &cobra.Command{
	Use:   "keywords [niche]",
	Short: "Research keywords for a niche",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		obs := newObserver()
		defer obs.Close()

		assistant, _, err := newAssistant(obs)
		if err != nil {
			fatal(obs, err, "Failed to init assistant")
		}
		s := getStore()
		defer s.Close()

		research, err := assistant.GenerateKeywords(context.Background(), args[0], keywordsSeed,
			resolveCredential(s, providerID), providerID)
		if err != nil {
			fatal(obs, err, "Keyword research failed")
		}
		printJSON(research)
	},
}

var (
	emailsProduct string
	emailsGoal    string
	emailsLength  int
)

var emailsCmd = &cobra.Command{
	Use:   "emails [niche]",
	Short: "Generate an email drip sequence",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		obs := newObserver()
		defer obs.Close()

		assistant, _, err := newAssistant(obs)
		if err != nil {
			fatal(obs, err, "Failed to init assistant")
		}
		s := getStore()
		defer s.Close()

		seq, err := assistant.GenerateEmailSequence(context.Background(), adapter.EmailSequencePrompt{
			Niche:   args[0],
			Product: emailsProduct,
			Goal:    emailsGoal,
			Length:  emailsLength,
		}, resolveCredential(s, providerID), providerID)
		if err != nil {
			fatal(obs, err, "Email sequence generation failed")
		}
		printJSON(seq)
	},
}

var productsPlatform string

var productsCmd = &cobra.Command{
	Use:   "products [niche]",
	Short: "Recommend affiliate products for a niche",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		obs := newObserver()
		defer obs.Close()

		assistant, _, err := newAssistant(obs)
		if err != nil {
			fatal(obs, err, "Failed to init assistant")
		}
		s := getStore()
		defer s.Close()

		recs, err := assistant.RecommendProducts(context.Background(), args[0], productsPlatform,
			resolveCredential(s, providerID), providerID)
		if err != nil {
			fatal(obs, err, "Product recommendation failed")
		}
		printJSON(recs)
	},
}

var imagePromptStyle string

var imagePromptCmd = &cobra.Command{
	Use:   "image-prompt [topic]",
	Short: "Craft a detailed image generation prompt",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		obs := newObserver()
		defer obs.Close()

		assistant, _, err := newAssistant(obs)
		if err != nil {
			fatal(obs, err, "Failed to init assistant")
		}
		s := getStore()
		defer s.Close()

		text, err := assistant.GenerateImagePrompt(context.Background(), strings.Join(args, " "), imagePromptStyle,
			resolveCredential(s, providerID), providerID)
		if err != nil {
			fatal(obs, err, "Image prompt generation failed")
		}
		fmt.Println(text)
	},
}

var (
	imageAspect string
	imageCount  int
	imageOut    string
)

var imageCmd = &cobra.Command{
	Use:   "image [prompt]",
	Short: "Generate images with the Google image model",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		obs := newObserver()
		defer obs.Close()

		assistant, _, err := newAssistant(obs)
		if err != nil {
			fatal(obs, err, "Failed to init assistant")
		}
		s := getStore()
		defer s.Close()

		// Image generation always routes to the image provider.
		key := apiKey
		if key == "" {
			key = resolveCredentialFor(s, "google")
		}

		images, err := assistant.GenerateImage(context.Background(), strings.Join(args, " "),
			adapter.ImageOptions{AspectRatio: imageAspect, Count: imageCount}, key)
		if err != nil {
			fatal(obs, err, "Image generation failed")
		}

		if err := os.MkdirAll(imageOut, 0750); err != nil {
			fatal(obs, err, "Failed to create output directory")
		}
		for i, img := range images {
			data, err := base64.StdEncoding.DecodeString(img.Data)
			if err != nil {
				fatal(obs, err, "Failed to decode image payload")
			}
			name := fmt.Sprintf("image-%d%s", i+1, extensionFor(img.MIMEType))
			path := filepath.Join(imageOut, name)
			if err := os.WriteFile(path, data, 0600); err != nil {
				fatal(obs, err, "Failed to write image")
			}
			fmt.Printf("Wrote %s\n", path)
		}
	},
}

func resolveCredentialFor(s store.Storage, id string) string {
	if s != nil {
		if key, err := s.GetSecret(id); err == nil && key != "" {
			return key
		}
	}
	return os.Getenv(envVarFor(id))
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

func init() {
	RootCmd.AddCommand(generateCmd)
	RootCmd.AddCommand(nicheCmd)
	RootCmd.AddCommand(contentCmd)
	RootCmd.AddCommand(keywordsCmd)
	RootCmd.AddCommand(emailsCmd)
	RootCmd.AddCommand(productsCmd)
	RootCmd.AddCommand(imagePromptCmd)
	RootCmd.AddCommand(imageCmd)

	nicheCmd.Flags().StringVar(&nicheSubNiche, "sub-niche", "", "Optional sub-niche to narrow the analysis")

	contentCmd.Flags().StringVarP(&contentType, "type", "t", "blog_article", "Content type (see 'copilot content --help')")
	contentCmd.Flags().StringVar(&contentTopic, "topic", "", "Topic to write about (required)")
	contentCmd.Flags().StringVar(&contentProduct, "product", "", "Product being promoted")
	contentCmd.Flags().StringSliceVar(&contentKeywords, "keywords", nil, "Keywords to weave in")
	contentCmd.Flags().StringVar(&contentTone, "tone", "", "Tone of voice (default professional)")
	contentCmd.Flags().StringVar(&contentLength, "length", "", "Length bucket (short, medium, long)")
	contentCmd.Flags().StringVar(&contentPlatform, "platform", "", "Target platform (default blog)")
	contentCmd.Flags().BoolVar(&contentLink, "affiliate-link", false, "Include an [AFFILIATE_LINK] placeholder")
	contentCmd.Flags().BoolVar(&contentSave, "save", false, "Save the result to the content library")

	keywordsCmd.Flags().StringVar(&keywordsSeed, "seed", "", "Seed keyword to branch from")

	emailsCmd.Flags().StringVar(&emailsProduct, "product", "", "Product the sequence promotes")
	emailsCmd.Flags().StringVar(&emailsGoal, "goal", "", "Sequence goal (default sale)")
	emailsCmd.Flags().IntVar(&emailsLength, "length", 0, "Number of emails (default 5)")

	productsCmd.Flags().StringVar(&productsPlatform, "platform", "both", "Affiliate platform (clickbank, amazon, both)")

	imagePromptCmd.Flags().StringVar(&imagePromptStyle, "style", "", "Visual style to ask for")

	imageCmd.Flags().StringVar(&imageAspect, "aspect", "", "Aspect ratio (default 1:1)")
	imageCmd.Flags().IntVar(&imageCount, "count", 1, "Number of images")
	imageCmd.Flags().StringVar(&imageOut, "out", ".", "Directory to write images into")
}
