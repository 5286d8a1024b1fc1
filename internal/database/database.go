package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"essence_back_end/internal/config"
)

// Connections - clients ouverts au démarrage. Elastic et MinIO sont nil s'ils ne sont pas configurés.
type Connections struct {
	Scylla  *gocql.Session
	Mongo   *mongo.Client
	MongoDB *mongo.Database
	Redis   *redis.Client
	Elastic *elasticsearch.Client
	MinIO   *minio.Client
}

// --- Initialisation ---
func Connect(cfg config.Config) (*Connections, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conns := &Connections{}
	var err error

	// 1. ScyllaDB (catalogue)
	if conns.Scylla, err = ConnectScylla(cfg.Scylla); err != nil {
		return nil, err
	}

	// 2. MongoDB (offres, commandes, utilisateurs)
	if conns.Mongo, err = ConnectMongo(ctx, cfg.Mongo.URI); err != nil {
		conns.Close()
		return nil, err
	}
	conns.MongoDB = conns.Mongo.Database(cfg.Mongo.Database)

	// 3. Redis
	if conns.Redis, err = ConnectRedis(ctx, cfg.Redis); err != nil {
		conns.Close()
		return nil, err
	}

	// 4. Elasticsearch (optionnel)
	if cfg.Elastic.URL != "" {
		if conns.Elastic, err = ConnectElastic(cfg.Elastic); err != nil {
			log.Printf("⚠️ %v, recherche désactivée", err)
		}
	} else {
		log.Println("⚠️ ELASTIC_URL absent, recherche désactivée")
	}

	// 5. MinIO (optionnel)
	if cfg.MinIO.Endpoint != "" {
		if conns.MinIO, err = ConnectMinIO(ctx, cfg.MinIO); err != nil {
			log.Printf("⚠️ %v, upload d'images désactivé", err)
		}
	} else {
		log.Println("⚠️ MINIO_ENDPOINT absent, upload d'images désactivé")
	}

	log.Println("✅ Toutes les bases de données sont connectées")
	return conns, nil
}

// =============================================
// SCYLLA DB
// =============================================

func newScyllaCluster(cfg config.ScyllaConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = gocql.Quorum
	// Les lightweight transactions du stock passent par Paxos dans le datacenter local
	cluster.SerialConsistency = gocql.LocalSerial
	cluster.Timeout = 5 * time.Second
	cluster.NumConns = 20

	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = 1 * time.Second
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	if cfg.SSLEnabled {
		cluster.SslOpts = &gocql.SslOptions{
			CaPath:                 cfg.CACertPath,
			EnableHostVerification: cfg.CACertPath != "",
		}
	}

	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster
}

func ConnectScylla(cfg config.ScyllaConfig) (*gocql.Session, error) {
	session, err := newScyllaCluster(cfg).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("erreur création session pour %s: %w", cfg.Keyspace, err)
	}
	log.Printf("✅ Session ScyllaDB pour keyspace '%s'", cfg.Keyspace)
	return session, nil
}

// =============================================
// MONGODB
// =============================================

func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("erreur connexion MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("erreur ping MongoDB: %w", err)
	}
	log.Println("✅ Connecté à MongoDB")
	return client, nil
}

// =============================================
// REDIS
// =============================================

func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("erreur connexion Redis: %w", err)
	}
	log.Println("✅ Connecté à Redis")
	return client, nil
}

// =============================================
// ELASTICSEARCH
// =============================================

func ConnectElastic(cfg config.ElasticConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("erreur création client Elasticsearch: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("erreur connexion Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	log.Println("✅ Connecté à Elasticsearch")
	return client, nil
}

// =============================================
// MINIO
// =============================================

func ConnectMinIO(ctx context.Context, cfg config.MinIOConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("erreur connexion MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("erreur vérification bucket MinIO: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("erreur création bucket MinIO: %w", err)
		}
		log.Println("🪣 Bucket créé :", cfg.Bucket)
	} else {
		log.Println("🪣 Bucket MinIO déjà présent :", cfg.Bucket)
	}

	log.Println("✅ Connecté à MinIO :", cfg.Endpoint)
	return client, nil
}

// Close ferme toutes les connexions ouvertes
func (c *Connections) Close() {
	if c.Scylla != nil {
		c.Scylla.Close()
		log.Println("🔌 Session ScyllaDB fermée")
	}
	if c.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Mongo.Disconnect(ctx); err != nil {
			log.Printf("⚠️ Erreur déconnexion MongoDB: %v", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Printf("⚠️ Erreur fermeture Redis: %v", err)
		}
	}
}
