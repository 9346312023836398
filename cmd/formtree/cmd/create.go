package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mform"
)

var createFlags struct {
	title       string
	description string
	form        string
	section     string
	question    string
	text        string
	qtype       string
	label       string
	value       string
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Append a new node as the last of its siblings",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var createFormCmd = &cobra.Command{
	Use:   "form",
	Short: "Create a form",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		f := mform.Form{Title: createFlags.title, Description: createFlags.description}
		if err := a.forms.Create(cmd.Context(), &f); err != nil {
			return err
		}
		printCreated(cmd, "form", f.ID, f.Rank)
		return nil
	},
}

var createSectionCmd = &cobra.Command{
	Use:   "section",
	Short: "Create a section at the end of a form",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		formID, err := parseID("form", createFlags.form)
		if err != nil {
			return err
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		s := mform.Section{FormID: formID, Title: createFlags.title, Description: createFlags.description}
		if err := a.sections.Create(cmd.Context(), &s); err != nil {
			return err
		}
		printCreated(cmd, "section", s.ID, s.Rank)
		return nil
	},
}

var createQuestionCmd = &cobra.Command{
	Use:   "question",
	Short: "Create a question at the end of a section or directly on a form",
	Long: `Create a question. Pass exactly one of --section or --form; the question is
appended after the existing questions of that parent.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := mform.Question{
			Title:    createFlags.title,
			Question: createFlags.text,
			Type:     mform.QuestionType(createFlags.qtype),
		}
		switch {
		case createFlags.section != "" && createFlags.form != "":
			return errors.New("pass either --section or --form, not both")
		case createFlags.section != "":
			id, err := parseID("section", createFlags.section)
			if err != nil {
				return err
			}
			q.SectionID = idwrap.Ptr(id)
		case createFlags.form != "":
			id, err := parseID("form", createFlags.form)
			if err != nil {
				return err
			}
			q.FormID = idwrap.Ptr(id)
		default:
			return errors.New("one of --section or --form is required")
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.questions.Create(cmd.Context(), &q); err != nil {
			return err
		}
		printCreated(cmd, "question", q.ID, q.Rank)
		return nil
	},
}

var createOptionCmd = &cobra.Command{
	Use:     "option",
	Aliases: []string{"answer"},
	Short:   "Create an answer option at the end of a question",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		questionID, err := parseID("question", createFlags.question)
		if err != nil {
			return err
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		o := mform.AnswerOption{
			QuestionID: questionID,
			Title:      createFlags.title,
			Label:      createFlags.label,
			Value:      createFlags.value,
		}
		if err := a.options.Create(cmd.Context(), &o); err != nil {
			return err
		}
		printCreated(cmd, "option", o.ID, o.Rank)
		return nil
	},
}

func printCreated(cmd *cobra.Command, kind string, id idwrap.IDWrap, rank int) {
	fmt.Fprintf(cmd.OutOrStdout(), "created %s %s rank %d\n", kind, id, rank)
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.AddCommand(createFormCmd, createSectionCmd, createQuestionCmd, createOptionCmd)

	createCmd.PersistentFlags().StringVar(&createFlags.title, "title", "", "title")

	createFormCmd.Flags().StringVar(&createFlags.description, "description", "", "description")

	createSectionCmd.Flags().StringVar(&createFlags.form, "form", "", "parent form id")
	createSectionCmd.Flags().StringVar(&createFlags.description, "description", "", "description")
	_ = createSectionCmd.MarkFlagRequired("form")

	createQuestionCmd.Flags().StringVar(&createFlags.form, "form", "", "parent form id")
	createQuestionCmd.Flags().StringVar(&createFlags.section, "section", "", "parent section id")
	createQuestionCmd.Flags().StringVar(&createFlags.text, "text", "", "question text")
	createQuestionCmd.Flags().StringVar(&createFlags.qtype, "type", string(mform.QuestionTypeFreeText),
		"single_choice, multiple_choice, free_text or range")

	createOptionCmd.Flags().StringVar(&createFlags.question, "question", "", "parent question id")
	createOptionCmd.Flags().StringVar(&createFlags.label, "label", "", "label shown to respondents")
	createOptionCmd.Flags().StringVar(&createFlags.value, "value", "", "stored value")
	_ = createOptionCmd.MarkFlagRequired("question")
}
