package db

// SchemaSQL defines the tables. Every statement is idempotent.
const SchemaSQL = `
    -- ==========================================================================
    -- PROJECT TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS project SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON project TYPE string;
    DEFINE FIELD IF NOT EXISTS company_brief ON project TYPE object FLEXIBLE DEFAULT {};
    DEFINE FIELD IF NOT EXISTS phase_progress ON project TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS winner ON project TYPE option<record<logo>>;
    DEFINE FIELD IF NOT EXISTS created_at ON project TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated_at ON project TYPE datetime DEFAULT time::now();

    -- ==========================================================================
    -- DIRECTION TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS direction SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS project ON direction TYPE record<project>;
    DEFINE FIELD IF NOT EXISTS type ON direction TYPE string;
    DEFINE FIELD IF NOT EXISTS name ON direction TYPE string;
    DEFINE FIELD IF NOT EXISTS rationale ON direction TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS style_keywords ON direction TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS color_palette ON direction TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS sort_order ON direction TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS selected ON direction TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS created_at ON direction TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS direction_project ON direction FIELDS project;

    -- ==========================================================================
    -- LOGO TABLE
    -- ==========================================================================
    -- parent, generation_type, branch_depth and created_at are write-once.
    DEFINE TABLE IF NOT EXISTS logo SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS project ON logo TYPE record<project>;
    DEFINE FIELD IF NOT EXISTS parent ON logo TYPE option<record<logo>> READONLY;
    DEFINE FIELD IF NOT EXISTS direction ON logo TYPE option<record<direction>>;
    DEFINE FIELD IF NOT EXISTS generation_type ON logo TYPE string READONLY
        ASSERT $value IN ["initial", "branch", "refine", "improve"];
    DEFINE FIELD IF NOT EXISTS branch_depth ON logo TYPE int READONLY ASSERT $value >= 0;
    DEFINE FIELD IF NOT EXISTS storage_path ON logo TYPE string;
    DEFINE FIELD IF NOT EXISTS prompt ON logo TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS style_levers ON logo TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS refinement_instruction ON logo TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS scores ON logo TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS is_favorite ON logo TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS is_archived ON logo TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS mockups ON logo TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS accessibility ON logo TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS favicon_test ON logo TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS created_at ON logo TYPE datetime DEFAULT time::now() READONLY;

    DEFINE INDEX IF NOT EXISTS logo_project ON logo FIELDS project;
    DEFINE INDEX IF NOT EXISTS logo_parent ON logo FIELDS parent;

    -- ==========================================================================
    -- BATCH JOB TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS batch_job SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS project ON batch_job TYPE record<project>;
    DEFINE FIELD IF NOT EXISTS kind ON batch_job TYPE string;
    DEFINE FIELD IF NOT EXISTS status ON batch_job TYPE string DEFAULT "pending";
    DEFINE FIELD IF NOT EXISTS total ON batch_job TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS completed ON batch_job TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS current_prompt ON batch_job TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS errors ON batch_job TYPE array<object> FLEXIBLE DEFAULT [];
    DEFINE FIELD IF NOT EXISTS logo_ids ON batch_job TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS error ON batch_job TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS started_at ON batch_job TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS completed_at ON batch_job TYPE option<datetime>;

    DEFINE INDEX IF NOT EXISTS batch_job_status ON batch_job FIELDS status;
`
