package database

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// Firebase holds the app handle and the Firestore client derived from it.
// It is created once by the caller and passed to whatever needs it.
type Firebase struct {
	App       *firebase.App
	Firestore *firestore.Client
	Config    *FirebaseConfig
}

func NewFirebase(ctx context.Context, config *FirebaseConfig) (*Firebase, error) {
	var opts []option.ClientOption
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}

	var appConfig *firebase.Config
	if config.ProjectID != "" {
		appConfig = &firebase.Config{ProjectID: config.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firestore client: %w", err)
	}

	return &Firebase{
		App:       app,
		Firestore: client,
		Config:    config,
	}, nil
}

func (f *Firebase) Collection(name string) *firestore.CollectionRef {
	return f.Firestore.Collection(name)
}

func (f *Firebase) Close() error {
	return f.Firestore.Close()
}
